package api

import (
	"github.com/dentalbrief/dentalbrief/app/database"
	"github.com/dentalbrief/dentalbrief/app/tasks"
)

type Handler struct {
	journalRepo  database.JournalRepository
	articleRepo  database.ArticleRepository
	userRepo     database.UserRepository
	deliveryRepo database.DeliveryRepository
	scheduler    tasks.TaskSchedulerInterface
}
