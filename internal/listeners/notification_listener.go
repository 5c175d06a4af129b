package listeners

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"homemassage/internal/events"
	"homemassage/pkg/config"
	"homemassage/pkg/constants"
	"homemassage/pkg/eventbus"
	"homemassage/pkg/telegram"
)

// NotificationListener шлёт уведомления в диспетчерский чат Telegram:
// новые бронирования, смены статусов и успешные оплаты.
type NotificationListener struct {
	telegramService telegram.ServiceInterface
	cfg             config.TelegramConfig
	logger          *zap.Logger
}

func NewNotificationListener(
	telegramService telegram.ServiceInterface,
	cfg config.TelegramConfig,
	logger *zap.Logger,
) *NotificationListener {
	return &NotificationListener{
		telegramService: telegramService,
		cfg:             cfg,
		logger:          logger,
	}
}

func (l *NotificationListener) Register(bus *eventbus.Bus) {
	bus.Subscribe(events.OrderCreatedEventName, l.handleOrderCreated)
	bus.Subscribe(events.OrderStatusChangedEventName, l.handleStatusChanged)
	bus.Subscribe(events.OrderPaidEventName, l.handleOrderPaid)
	l.logger.Info("NotificationListener подписан на события заказов")
}

func (l *NotificationListener) handleOrderCreated(ctx context.Context, event eventbus.Event) error {
	e, ok := event.(events.OrderCreatedEvent)
	if !ok {
		return nil
	}
	text := fmt.Sprintf(
		"<b>Новое бронирование %s</b>\nДата: %s\nОкно прибытия: %s–%s\nМастер: #%d\nАдрес: %s",
		e.Order.OrderNumber,
		e.Order.BookingDate.Format("02.01.2006"),
		e.Order.ArrivalWindowStart, e.Order.ArrivalWindowEnd,
		e.Order.MasterID,
		e.Order.Address,
	)
	return l.send(ctx, text)
}

func (l *NotificationListener) handleStatusChanged(ctx context.Context, event eventbus.Event) error {
	e, ok := event.(events.OrderStatusChangedEvent)
	if !ok {
		return nil
	}
	// Автоматические переходы планировщика чат не засоряют,
	// диспетчеру важны отмены и автозавершения.
	if e.ActorType == constants.ActorSystem && e.NewStatus == constants.OrderStatusInProgress {
		return nil
	}

	text := fmt.Sprintf(
		"<b>Заказ %s: %s → %s</b>",
		e.Order.OrderNumber, e.OldStatus, e.NewStatus,
	)
	if e.NewStatus == constants.OrderStatusCancelled && e.Order.CancelReason.Valid {
		text += fmt.Sprintf("\nПричина отмены: %s", e.Order.CancelReason.String)
	}
	if e.NewStatus == constants.OrderStatusCompleted && e.Order.AutoCompleted {
		text += "\nЗавершён автоматически"
	}
	return l.send(ctx, text)
}

func (l *NotificationListener) handleOrderPaid(ctx context.Context, event eventbus.Event) error {
	e, ok := event.(events.OrderPaidEvent)
	if !ok {
		return nil
	}
	text := fmt.Sprintf(
		"<b>Оплата по заказу %s</b>\nПровайдер: %s\nСумма: %d",
		e.Order.OrderNumber, e.Provider, e.Amount,
	)
	return l.send(ctx, text)
}

func (l *NotificationListener) send(ctx context.Context, text string) error {
	if l.cfg.DispatcherChatID == 0 {
		return nil
	}
	if err := l.telegramService.SendMessageEx(ctx, l.cfg.DispatcherChatID, text, telegram.WithHTML()); err != nil {
		l.logger.Error("не удалось отправить уведомление в Telegram", zap.Error(err))
		return err
	}
	return nil
}
