package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"askdocs/internal/model"
)

// TurnStore is the persistence side of the worker.
type TurnStore interface {
	Create(turn *model.TutorTurn) error
}

// TurnPersistWorker drains the tutor turn queue into MySQL.
type TurnPersistWorker struct {
	conn      *amqp.Connection
	repo      TurnStore
	queueName string

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewTurnPersistWorker(conn *amqp.Connection, repo TurnStore, queueName string) *TurnPersistWorker {
	return &TurnPersistWorker{
		conn:      conn,
		repo:      repo,
		queueName: queueName,
	}
}

func (w *TurnPersistWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	ch, err := w.conn.Channel()
	if err != nil {
		cancel()
		return fmt.Errorf("open worker channel failed: %w", err)
	}

	_, err = ch.QueueDeclare(
		w.queueName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("declare worker queue failed: %w", err)
	}

	deliveries, err := ch.Consume(
		w.queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()

		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}
				if err := w.handle(d.Body); err != nil {
					log.Printf("worker %v", err)
					_ = d.Nack(false, false)
					continue
				}
				_ = d.Ack(false)
			}
		}
	}()

	return nil
}

// handle decodes one delivery and stores it. Undecodable bodies are dropped.
func (w *TurnPersistWorker) handle(body []byte) error {
	var turn model.TutorTurn
	if err := json.Unmarshal(body, &turn); err != nil {
		return fmt.Errorf("decode tutor turn failed: %w", err)
	}
	if turn.SessionID == "" || turn.Content == "" {
		return fmt.Errorf("tutor turn missing session or content")
	}
	turn.ID = 0
	if err := w.repo.Create(&turn); err != nil {
		return fmt.Errorf("persist tutor turn failed: %w", err)
	}
	return nil
}

func (w *TurnPersistWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
