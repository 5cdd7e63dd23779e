package websocket

import (
	"errors"
	"sync"
	"time"
)

// mockMessage is one scripted or recorded frame.
type mockMessage struct {
	Type int
	Data []byte
	Err  error
}

// mockConnection scripts reads and records writes for pump tests.
type mockConnection struct {
	mu sync.Mutex

	writtenMessages []mockMessage
	readMessages    []mockMessage
	readIndex       int

	// readBlock, when set, makes ReadMessage block after the scripted
	// messages run out instead of returning an error.
	readBlock chan struct{}

	closed        bool
	readDeadline  time.Time
	writeDeadline time.Time
	pongHandler   func(string) error
	remoteAddress string
	readLimit     int64
}

func newMockConnection() *mockConnection {
	return &mockConnection{
		remoteAddress: "127.0.0.1:8080",
	}
}

func (m *mockConnection) WriteMessage(messageType int, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return errors.New("connection closed")
	}
	m.writtenMessages = append(m.writtenMessages, mockMessage{Type: messageType, Data: data})
	return nil
}

func (m *mockConnection) ReadMessage() (int, []byte, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return 0, nil, errors.New("connection closed")
	}
	if m.readIndex < len(m.readMessages) {
		msg := m.readMessages[m.readIndex]
		m.readIndex++
		m.mu.Unlock()
		return msg.Type, msg.Data, msg.Err
	}
	block := m.readBlock
	m.mu.Unlock()

	if block != nil {
		<-block
	}
	return 0, nil, errors.New("no more messages")
}

func (m *mockConnection) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	if m.readBlock != nil {
		select {
		case <-m.readBlock:
		default:
			close(m.readBlock)
		}
	}
	return nil
}

func (m *mockConnection) SetReadDeadline(t time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readDeadline = t
	return nil
}

func (m *mockConnection) SetWriteDeadline(t time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeDeadline = t
	return nil
}

func (m *mockConnection) SetReadLimit(limit int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readLimit = limit
}

func (m *mockConnection) SetPongHandler(h func(string) error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pongHandler = h
}

func (m *mockConnection) RemoteAddr() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.remoteAddress
}

func (m *mockConnection) addReadMessage(messageType int, data []byte, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readMessages = append(m.readMessages, mockMessage{Type: messageType, Data: data, Err: err})
}

func (m *mockConnection) getWrittenMessages() []mockMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]mockMessage, len(m.writtenMessages))
	copy(result, m.writtenMessages)
	return result
}

func (m *mockConnection) isClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func (m *mockConnection) getReadLimit() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.readLimit
}

func (m *mockConnection) hasPongHandler() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pongHandler != nil
}
