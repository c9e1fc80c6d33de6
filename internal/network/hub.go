package network

import (
	"ascension-server/pkg/api"
	"ascension-server/pkg/logger"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"
)

// SubscriberBuffer - размер личного канала подписчика
const SubscriberBuffer = 100

// Broadcaster занимается только рассылкой сообщений подписчикам
type Broadcaster struct {
	mu sync.RWMutex
	// Мапа: SessionID -> Личный канал
	subscribers map[string]chan api.ServerResponse
	logger      *logrus.Entry
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subscribers: make(map[string]chan api.ServerResponse),
		logger:      logger.Log.WithField("component", "broadcaster"),
	}
}

// Register создает личный канал для сессии. Старый канал (прошлое подключение) закрывается.
func (b *Broadcaster) Register(sessionID string) chan api.ServerResponse {
	b.mu.Lock()
	defer b.mu.Unlock()

	if old, ok := b.subscribers[sessionID]; ok {
		close(old)
	}

	ch := make(chan api.ServerResponse, SubscriberBuffer)
	b.subscribers[sessionID] = ch
	return ch
}

// Unregister удаляет подписчика, только если канал все еще его.
// Переподключившийся клиент уже получил новый канал - его не трогаем.
func (b *Broadcaster) Unregister(sessionID string, ch chan api.ServerResponse) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if cur, ok := b.subscribers[sessionID]; ok && cur == ch {
		close(cur)
		delete(b.subscribers, sessionID)
	}
}

// SendTo отправляет сообщение конкретной сессии (Unicast).
// Полный канал не блокирует отправителя: сообщение теряется.
func (b *Broadcaster) SendTo(sessionID string, msg api.ServerResponse) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()

	ch, ok := b.subscribers[sessionID]
	if !ok {
		return false
	}
	select {
	case ch <- msg:
		return true
	default:
		b.logger.WithFields(logrus.Fields{
			"session_id": sessionID,
			"type":       msg.Type,
		}).Warn("Subscriber channel full, message dropped")
		return false
	}
}

// Broadcast отправляет всем (служебные уведомления, shutdown)
func (b *Broadcaster) Broadcast(msg api.ServerResponse) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subscribers {
		select {
		case ch <- msg:
		default:
		}
	}
}

// HasSubscriber проверяет, подключен ли кто-то к сессии.
// Тикер боя не крутит ходы, если смотреть некому.
func (b *Broadcaster) HasSubscriber(sessionID string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.subscribers[sessionID]
	return ok
}

// SubscriberCount возвращает количество активных подписчиков.
func (b *Broadcaster) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Subscribers - отсортированный список подключенных сессий (для debug)
func (b *Broadcaster) Subscribers() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	ids := make([]string, 0, len(b.subscribers))
	for id := range b.subscribers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// CloseAll закрывает все каналы (writePump'ы шлют Close и выходят)
func (b *Broadcaster) CloseAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, ch := range b.subscribers {
		close(ch)
		delete(b.subscribers, id)
	}
}
