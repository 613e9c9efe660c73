package main

import (
	"colabnote-be/internal/controller"
	"colabnote-be/internal/pkg/serverutils"
	"colabnote-be/internal/repository"
	"colabnote-be/internal/service"
	"colabnote-be/pkg/database"
	"log"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
)

func main() {
	godotenv.Load()
	app := fiber.New()

	app.Use(cors.New())
	app.Use(serverutils.ErrorHandlerMiddleware())

	db := database.ConnectDB(os.Getenv("DB_CONNECTION_STRING"))

	noteRepository := repository.NewNoteRepository(db)
	noteService := service.NewNoteService(noteRepository, db)
	noteController := controller.NewNoteController(noteService)

	api := app.Group("/api")
	noteController.RegisterRoutes(api)

	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}

	log.Fatal(app.Listen(":" + port))
}
