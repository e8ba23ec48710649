package main

import (
	"fmt"
	"log"
	"net/http"
	"os"

	"go.uber.org/zap"

	"github.com/integrityline/legal-process-api/api/handlers"
	"github.com/integrityline/legal-process-api/api/scheduler"
	"github.com/integrityline/legal-process-api/config"
	"github.com/integrityline/legal-process-api/databases"
)

func main() {
	a := handlers.App{}
	a.Config = *config.New()

	if err := a.Initialize(); err != nil { //initialize database and router
		log.Fatal(err)
	}

	// wire the daily notification sweeper against the same db connection
	dbHelper := a.DatabaseHelper()
	notifier := &scheduler.EmailNotifier{
		UserDB: databases.NewUserDatabase(dbHelper),
		Sender: scheduler.NewSendGridSender(a.Config.SendGridAPIKey),
	}
	sweeper := scheduler.NewSweeper(
		databases.NewCaseDatabase(dbHelper),
		databases.NewRecommendationDatabase(dbHelper),
		databases.NewHolidayDatabase(dbHelper),
		databases.NewNotificationLogDatabase(dbHelper),
		databases.NewSchedulerLockDatabase(dbHelper),
		notifier,
	)
	sweeper.Start()
	defer sweeper.Stop()

	port := os.Getenv("PORT")
	baseURL := os.Getenv("BASE_URL")
	zap.S().Infow("legal-process-api is up and running",
		"port", port,
		"url", baseURL,
	)
	log.Fatal(http.ListenAndServe(fmt.Sprintf(":%v", port), a.Router))
}
