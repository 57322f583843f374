package treatment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/vitiscan/treatment-plan/internal/advice"
	"github.com/vitiscan/treatment-plan/internal/dosage"
	"github.com/vitiscan/treatment-plan/internal/entity"
	"github.com/vitiscan/treatment-plan/internal/pkg/formatter"
	"github.com/vitiscan/treatment-plan/internal/pkg/label"
	"github.com/vitiscan/treatment-plan/internal/pkg/logger"
	"github.com/vitiscan/treatment-plan/internal/pkg/validator"
)

// TreatmentUsecase builds treatment plans: knowledge retrieval, model
// advice, deterministic dosage and plan history.
type TreatmentUsecase struct {
	retriever  Retriever
	llm        LLMConnector
	prompts    PromptBuilder
	plans      PlanRepository
	validator  *validator.Validator
	formatters *formatter.Factory
	recorder   Recorder
	now        func() time.Time
}

func NewUsecase(
	retriever Retriever,
	llm LLMConnector,
	prompts PromptBuilder,
	plans PlanRepository,
	validator *validator.Validator,
	recorder Recorder,
) *TreatmentUsecase {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &TreatmentUsecase{
		retriever:  retriever,
		llm:        llm,
		prompts:    prompts,
		plans:      plans,
		validator:  validator,
		formatters: formatter.NewFactory(),
		recorder:   recorder,
		now:        time.Now,
	}
}

// GenerateTreatmentAdvice validates the request and produces a plan. Model
// and knowledge store failures degrade the plan instead of failing it; only
// invalid requests return an error.
func (uc *TreatmentUsecase) GenerateTreatmentAdvice(
	ctx context.Context,
	req *entity.SolutionRequest,
) (*entity.TreatmentAdvice, error) {
	if req != nil {
		req.Mode = strings.ToLower(strings.TrimSpace(req.Mode))
		req.Severity = strings.ToLower(strings.TrimSpace(req.Severity))
	}
	if err := uc.validator.ValidateSolutionRequest(req); err != nil {
		return nil, err
	}

	key := label.Normalize(req.CNNLabel)
	tc := entity.TreatmentContext{
		CNNLabel:    req.CNNLabel,
		DiseaseKey:  key,
		DiseaseName: DiseaseName(key),
		Mode:        entity.FarmingMode(req.Mode),
		Severity:    entity.Severity(req.Severity),
		AreaM2:      *req.AreaM2,
		DateISO:     req.DateISO,
		Season:      InferSeason(req.DateISO),
		Location:    req.Location,
	}

	ctx = logger.WithAction(ctx, "generate_treatment_plan")
	ctx = logger.AddFields(ctx,
		zap.String("disease_key", tc.DiseaseKey),
		zap.String("mode", string(tc.Mode)),
		zap.String("severity", string(tc.Severity)),
	)

	fragments := uc.retriever.Retrieve(ctx, entity.RetrievalQuery{
		DiseaseKey:   tc.DiseaseKey,
		FarmingMode:  string(tc.Mode),
		SeverityHint: string(tc.Severity),
	})
	ctxzap.Info(ctx, "knowledge retrieved", zap.Int("fragments", len(fragments)))

	plan := &entity.TreatmentAdvice{
		ID:          uuid.NewString(),
		Context:     tc,
		Fragments:   len(fragments),
		GeneratedAt: uc.now().UTC(),
	}

	plan.Dosage = dosage.Compute(tc.DiseaseKey, tc.Mode, tc.AreaM2, tc.Severity)
	if plan.Dosage == nil {
		plan.DosageNote = dosage.NoteUnconfigured
	}

	promptFragments := fragments
	if len(promptFragments) == 0 {
		promptFragments = fallbackFragments()
	}

	prompt, err := uc.prompts.Treatment(tc, promptFragments)
	if err != nil {
		return nil, fmt.Errorf("build prompt: %w", err)
	}

	uc.advise(ctx, plan, prompt)
	uc.store(ctx, plan)

	return plan, nil
}

// advise fills the plan advice from the model answer, or from the advisor
// narrative when the model is unavailable.
func (uc *TreatmentUsecase) advise(ctx context.Context, plan *entity.TreatmentAdvice, prompt string) {
	raw, err := uc.llm.Complete(ctx, prompt)
	if err != nil {
		ctxzap.Error(ctx, "language model call failed", zap.Error(err))
		uc.recorder.LLMFailure()

		narrative := llmFailureNarrative(err)
		plan.Advice = entity.EmptyAdvice(narrative)
		plan.Advice.Warnings = withBaseWarnings(nil)
		plan.RawLLMText = narrative
		plan.LLMFailed = true
		return
	}

	structured, stage := advice.NormalizeWithStage(raw)
	uc.recorder.NormalizeStage(string(stage))
	ctxzap.Info(ctx, "model answer normalized",
		zap.String("stage", string(stage)),
		zap.Int("treatment_actions", len(structured.TreatmentActions)),
		zap.Int("preventive_actions", len(structured.PreventiveActions)),
	)

	if structured.Diagnostic == "" {
		structured.Diagnostic = advisorNarrative
	}
	structured.Warnings = withBaseWarnings(structured.Warnings)

	plan.Advice = structured
	plan.RawLLMText = raw
}

func (uc *TreatmentUsecase) store(ctx context.Context, plan *entity.TreatmentAdvice) {
	err := uc.plans.Save(ctx, plan)
	uc.recorder.PlanStored(err)
	if err != nil {
		ctxzap.Warn(ctx, "failed to store treatment plan", zap.String("plan_id", plan.ID), zap.Error(err))
		return
	}
	ctxzap.Debug(ctx, "treatment plan stored", zap.String("plan_id", plan.ID))
}

func (uc *TreatmentUsecase) GetPlan(ctx context.Context, id string) (*entity.TreatmentAdvice, error) {
	if err := uc.validator.ValidatePlanID(id); err != nil {
		return nil, err
	}

	plan, err := uc.plans.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get plan: %w", err)
	}

	return plan, nil
}

// ExportedPlan is a stored plan rendered as a downloadable document.
type ExportedPlan struct {
	Data        []byte
	ContentType string
	Filename    string
}

// ExportPlan renders a stored plan as markdown, pdf or docx; an empty
// format means markdown.
func (uc *TreatmentUsecase) ExportPlan(ctx context.Context, id, format string) (*ExportedPlan, error) {
	resultFormat, err := uc.validator.ParseExportFormat(format)
	if err != nil {
		return nil, err
	}

	plan, err := uc.GetPlan(ctx, id)
	if err != nil {
		return nil, err
	}

	f, err := uc.formatters.Create(resultFormat)
	if err != nil {
		return nil, err
	}

	data, err := f.Format(formatter.PlanDocument(plan))
	if err != nil {
		return nil, fmt.Errorf("format plan as %s: %w", resultFormat, err)
	}

	ctxzap.Info(ctx, "plan exported",
		zap.String("plan_id", plan.ID),
		zap.String("format", string(resultFormat)),
		zap.Int("size", len(data)),
	)

	return &ExportedPlan{
		Data:        data,
		ContentType: f.ContentType(),
		Filename:    "treatment-plan-" + plan.ID + f.FileExtension(),
	}, nil
}
