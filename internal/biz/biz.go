package biz

import (
	"github.com/DevRickLin/matchmate/internal/biz/repo"
	"github.com/DevRickLin/matchmate/internal/biz/usecase"
)

// Usecases contains all usecases
type Usecases struct {
	Greeting  *usecase.GreetingUsecase
	DateCheck *usecase.DateCheckUsecase
}

// NewUsecases creates the usecases over one set of repositories
func NewUsecases(
	genRepo repo.GenerationRepo,
	calendarRepo repo.CalendarRepo,
	notifier repo.NotifierRepo,
	prompts usecase.PromptConfig,
) *Usecases {
	return &Usecases{
		Greeting:  usecase.NewGreetingUsecase(genRepo, prompts),
		DateCheck: usecase.NewDateCheckUsecase(genRepo, calendarRepo, notifier, prompts),
	}
}

