package service

import (
	"colabnote-be/internal/client"
	"colabnote-be/internal/constant"
	"colabnote-be/internal/dto"
	"context"
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/gofiber/fiber/v2/log"
)

// IPropagationService drains note mutation messages and replays them against
// the remote note store. Write failures are logged and swallowed: the local
// cache is the fallback of record and the next user-initiated sync is the de
// facto retry.
type IPropagationService interface {
	Consume(ctx context.Context) error
}

type propagationService struct {
	pubSub      *gochannel.GoChannel
	topicName   string
	storeClient client.INoteStoreClient
}

func NewPropagationService(
	pubSub *gochannel.GoChannel,
	topicName string,
	storeClient client.INoteStoreClient,
) IPropagationService {
	return &propagationService{
		pubSub:      pubSub,
		topicName:   topicName,
		storeClient: storeClient,
	}
}

func (ps *propagationService) Consume(ctx context.Context) error {
	messages, err := ps.pubSub.Subscribe(ctx, ps.topicName)
	if err != nil {
		return err
	}

	// Single consumer goroutine keeps remote writes in publish order.
	go func() {
		for msg := range messages {
			ps.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (ps *propagationService) processMessage(ctx context.Context, msg *message.Message) {
	defer msg.Ack()

	defer func() {
		if e := recover(); e != nil {
			log.Errorf("[Panic Recovery] panic while propagating note mutation: %v", e)
		}
	}()

	var payload dto.PublishNoteMutationMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		log.Errorf("[Propagation] failed to unmarshal payload: %v | Payload: %s", err, string(msg.Payload))
		return
	}

	switch payload.Op {
	case constant.NoteMutationOpCreate:
		if payload.Note == nil {
			log.Errorf("[Propagation] create message for note %s has no payload", payload.NoteId)
			return
		}
		if err := ps.storeClient.CreateNote(ctx, payload.Note); err != nil {
			log.Errorf("[Propagation] failed to save note %s to backend: %v", payload.NoteId, err)
		}

	case constant.NoteMutationOpUpdate:
		if payload.Patch == nil {
			log.Errorf("[Propagation] update message for note %s has no patch", payload.NoteId)
			return
		}
		// The id travels in the message envelope, not the patch body.
		payload.Patch.Id = payload.NoteId
		if err := ps.storeClient.UpdateNote(ctx, payload.Patch); err != nil {
			log.Errorf("[Propagation] failed to update note %s: %v", payload.NoteId, err)
		}

	case constant.NoteMutationOpDelete:
		if err := ps.storeClient.DeleteNote(ctx, payload.NoteId); err != nil {
			log.Errorf("[Propagation] failed to delete note %s: %v", payload.NoteId, err)
		}

	default:
		log.Errorf("[Propagation] unknown mutation op %q for note %s", payload.Op, payload.NoteId)
	}
}
