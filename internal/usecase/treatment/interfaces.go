package treatment

import (
	"context"

	"github.com/vitiscan/treatment-plan/internal/entity"
)

type Retriever interface {
	Retrieve(ctx context.Context, q entity.RetrievalQuery) []entity.KnowledgeFragment
}

type LLMConnector interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

type PromptBuilder interface {
	Treatment(tc entity.TreatmentContext, fragments []entity.KnowledgeFragment) (string, error)
}

type PlanRepository interface {
	Save(ctx context.Context, plan *entity.TreatmentAdvice) error
	Get(ctx context.Context, id string) (*entity.TreatmentAdvice, error)
}

// Recorder receives pipeline outcomes; *metrics.Metrics satisfies it.
type Recorder interface {
	NormalizeStage(stage string)
	LLMFailure()
	PlanStored(err error)
}

type nopRecorder struct{}

func (nopRecorder) NormalizeStage(string) {}
func (nopRecorder) LLMFailure() {}
func (nopRecorder) PlanStored(error) {}
