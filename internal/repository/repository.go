package repository

import "quiz_web/internal/storage"

type Repositories struct {
	User     UserRepository
	StudySet StudySetRepository
	Summary  SummaryRepository
}

func NewRepositories(db *storage.PostgresDB) *Repositories {
	return &Repositories{
		User:     NewUserRepository(db),
		StudySet: NewStudySetRepository(db),
		Summary:  NewSummaryRepository(db),
	}
}
