package service

import (
	"time"

	"quiz_web/internal/quiz"
	"quiz_web/internal/repository"
	"quiz_web/pkg/config"
)

type Services struct {
	User     *UserService
	StudySet *StudySetService
	Summary  *SummaryService
	Registry *quiz.Registry
}

func NewServices(repos *repository.Repositories, cfg config.QuizConfig) *Services {
	summaryService := NewSummaryService(repos.Summary)
	registry := quiz.NewRegistry(summaryService, cfg.QuestionTime,
		time.Duration(cfg.IdleTimeout)*time.Minute)

	return &Services{
		User:     NewUserService(repos.User),
		StudySet: NewStudySetService(repos.StudySet),
		Summary:  summaryService,
		Registry: registry,
	}
}
