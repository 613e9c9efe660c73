package main

import (
	"colabnote-be/internal/client"
	"colabnote-be/internal/entity"
	"colabnote-be/internal/repository"
	"colabnote-be/internal/service"
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

func main() {
	godotenv.Load()

	baseURL := os.Getenv("NOTE_STORE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:3000"
	}

	dataDir := os.Getenv("COLABNOTE_DATA_DIR")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			log.Fatalf("cannot resolve home dir: %v", err)
		}
		dataDir = filepath.Join(home, ".colabnote")
	}

	topicName := os.Getenv("NOTE_MUTATION_TOPIC_NAME")
	if topicName == "" {
		topicName = "note-mutation"
	}

	cacheRepository := repository.NewCacheRepository(filepath.Join(dataDir, "colabnote-storage.json"))
	localStateRepository := repository.NewLocalStateRepository(filepath.Join(dataDir, "local-state.json"))
	storeClient := client.NewNoteStoreClient(baseURL)

	watermillLogger := watermill.NewStdLogger(false, false)
	// Block publishes until ack, so pending writes finish before the
	// process exits.
	pubSub := gochannel.NewGoChannel(gochannel.Config{
		BlockPublishUntilSubscriberAck: true,
	}, watermillLogger)

	publisherService := service.NewPublisherService(topicName, pubSub)
	propagationService := service.NewPropagationService(pubSub, topicName, storeClient)
	syncService := service.NewSyncService(cacheRepository, storeClient, publisherService)
	sessionService := service.NewSessionService(cacheRepository, localStateRepository, syncService, storeClient)

	ctx := context.Background()
	if err := propagationService.Consume(ctx); err != nil {
		log.Fatalf("cannot start propagation consumer: %v", err)
	}

	args := os.Args[1:]
	if len(args) == 0 {
		usage()
		return
	}

	switch args[0] {
	case "name":
		if len(args) < 2 {
			usage()
			return
		}
		localStateRepository.SetUserName(args[1])
		fmt.Printf("hello, %s\n", args[1])

	case "list":
		if err := syncService.SyncAll(ctx); err != nil {
			log.Printf("sync failed, showing cached notes: %v", err)
		}
		for _, note := range syncService.ListNotes() {
			printNote(note)
		}

	case "create":
		owner, _ := localStateRepository.UserName()
		id := syncService.CreateNote(ctx, owner)
		fmt.Printf("created %s\n", id)

	case "open":
		if len(args) < 2 {
			usage()
			return
		}
		id, err := uuid.Parse(args[1])
		if err != nil {
			log.Fatalf("invalid note id: %v", err)
		}

		if _, err := syncService.FetchNote(ctx, id); err != nil {
			log.Printf("could not refresh note, using cached copy: %v", err)
		}

		session, err := sessionService.Open(ctx, id)
		if err != nil {
			log.Fatalf("cannot open note: %v", err)
		}

		if session.State == service.AccessStateCodePrompt && len(args) >= 3 {
			if err := sessionService.SubmitCode(ctx, session, args[2]); err != nil {
				log.Fatalf("code rejected: %v", err)
			}
			if session.CodeError {
				fmt.Println("wrong code")
				return
			}
		}
		fmt.Printf("access: %s\n", session.State)

	case "share":
		if len(args) < 2 {
			usage()
			return
		}
		id, err := uuid.Parse(args[1])
		if err != nil {
			log.Fatalf("invalid note id: %v", err)
		}

		session, err := sessionService.Open(ctx, id)
		if err != nil {
			log.Fatalf("cannot open note: %v", err)
		}
		if err := sessionService.ToggleCollaboration(ctx, session); err != nil {
			log.Fatalf("cannot toggle collaboration: %v", err)
		}
		if note, ok := cacheRepository.Get(id); ok {
			printNote(note)
		}

	case "join":
		if len(args) < 2 {
			usage()
			return
		}
		id, err := sessionService.JoinByCode(ctx, args[1])
		if err != nil {
			log.Fatalf("cannot join session: %v", err)
		}
		fmt.Printf("joined %s\n", id)

	case "delete":
		if len(args) < 2 {
			usage()
			return
		}
		id, err := uuid.Parse(args[1])
		if err != nil {
			log.Fatalf("invalid note id: %v", err)
		}
		syncService.DeleteNote(ctx, id)
		fmt.Printf("deleted %s\n", id)

	default:
		usage()
	}
}

func printNote(note *entity.Note) {
	owner := "-"
	if note.Owner != nil {
		owner = *note.Owner
	}

	shared := "private"
	if note.IsCollaborationOpen && note.AccessCode != nil {
		shared = "open, code " + *note.AccessCode
	}

	fmt.Printf("%s  %-20q  owner=%s  %s  %s\n",
		note.Id, note.Title, owner, shared, note.LastEdited.Format("2006-01-02 15:04"))
}

func usage() {
	fmt.Println(`usage:
  client name <your-name>
  client list
  client create
  client open <note-id> [code]
  client share <note-id>
  client join <code>
  client delete <note-id>`)
}
