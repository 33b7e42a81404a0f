package api

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"growthquest/internal/engine"
)

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	svc    *engine.Service
	logger zerolog.Logger
}

func NewHandlers(svc *engine.Service, logger zerolog.Logger) *Handlers {
	return &Handlers{
		svc:    svc,
		logger: logger.With().Str("component", "handlers").Logger(),
	}
}

// Liveness handles GET /healthz.
func (h *Handlers) Liveness(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func userID(c *fiber.Ctx) (int64, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, engine.ValidationError("id", "user id must be a positive integer")
	}
	return int64(id), nil
}

func questID(c *fiber.Ctx) (int64, error) {
	id, err := c.ParamsInt("questID")
	if err != nil || id <= 0 {
		return 0, engine.ValidationError("questID", "quest id must be a positive integer")
	}
	return int64(id), nil
}

func parseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return engine.ValidationError("body", "invalid request body: "+err.Error())
	}
	return nil
}

// CreateUser handles POST /api/v1/users. Existing usernames are returned as-is.
func (h *Handlers) CreateUser(c *fiber.Ctx) error {
	var req CreateUserRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	u, err := h.svc.EnsureUser(c.UserContext(), req.Username, req.Nickname)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(userResponse(u))
}

// GetUser handles GET /api/v1/users/:id.
func (h *Handlers) GetUser(c *fiber.Ctx) error {
	id, err := userID(c)
	if err != nil {
		return err
	}
	u, err := h.svc.GetUser(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(userResponse(u))
}

// SubmitQuestionnaire handles POST /api/v1/users/:id/questionnaire.
func (h *Handlers) SubmitQuestionnaire(c *fiber.Ctx) error {
	id, err := userID(c)
	if err != nil {
		return err
	}
	var req QuestionnaireRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	method := engine.InputQuestionnaire
	if req.Method != "" {
		if method, err = engine.ParseInputMethod(req.Method); err != nil {
			return err
		}
	}
	if err := h.svc.SubmitPendingAnalysis(c.UserContext(), id, engine.PendingInput{
		Method:  method,
		Answers: req.Answers,
		Text:    req.Text,
	}); err != nil {
		return err
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"message": "questionnaire stored"})
}

// RunAnalysis handles POST /api/v1/users/:id/analysis.
func (h *Handlers) RunAnalysis(c *fiber.Ctx) error {
	id, err := userID(c)
	if err != nil {
		return err
	}
	res, err := h.svc.AnalyzePending(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(analysisResponse(res))
}

// IngestAnalysis handles POST /api/v1/users/:id/analysis/raw.
func (h *Handlers) IngestAnalysis(c *fiber.Ctx) error {
	id, err := userID(c)
	if err != nil {
		return err
	}
	var req RawAnalysisRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if strings.TrimSpace(req.Raw) == "" {
		return engine.ValidationError("raw", "raw analysis output is required")
	}
	res, err := h.svc.IngestInitialAnalysis(c.UserContext(), id, req.Raw)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(analysisResponse(res))
}

// GetStats handles GET /api/v1/users/:id/stats.
func (h *Handlers) GetStats(c *fiber.Ctx) error {
	id, err := userID(c)
	if err != nil {
		return err
	}
	v, err := h.svc.GetStats(c.UserContext(), id)
	if err != nil {
		return err
	}
	p := h.svc.Policy().Progress(v)
	return c.JSON(statsResponse(v, &p))
}

// LevelUp handles POST /api/v1/users/:id/level-up.
func (h *Handlers) LevelUp(c *fiber.Ctx) error {
	id, err := userID(c)
	if err != nil {
		return err
	}
	v, err := h.svc.RequestLevelUp(c.UserContext(), id)
	if err != nil {
		return err
	}
	p := h.svc.Policy().Progress(v)
	return c.JSON(statsResponse(v, &p))
}

// RecentEvents handles GET /api/v1/users/:id/events?stat=&limit=.
func (h *Handlers) RecentEvents(c *fiber.Ctx) error {
	id, err := userID(c)
	if err != nil {
		return err
	}
	events, err := h.svc.GetRecentStatEvents(c.UserContext(), id, c.Query("stat"), c.QueryInt("limit", 0))
	if err != nil {
		return err
	}
	out := make([]EventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, EventResponse{
			ID:          e.ID,
			Stat:        e.Stat,
			Type:        string(e.Type),
			Description: e.Description,
			Delta:       e.Delta,
			SourceID:    e.SourceID,
			CreatedAt:   e.CreatedAt,
		})
	}
	return c.JSON(fiber.Map{"events": out})
}

// Achievements handles GET /api/v1/users/:id/achievements.
func (h *Handlers) Achievements(c *fiber.Ctx) error {
	id, err := userID(c)
	if err != nil {
		return err
	}
	a, err := h.svc.GetAchievements(c.UserContext(), id)
	if err != nil {
		return err
	}
	out := AchievementsResponse{
		Completed: a.Completed,
		ByLevel:   make([]LevelGroupResponse, 0, len(a.ByLevel)),
		Badges:    make([]BadgeResponse, 0, len(a.Badges)),
		Earned:    a.CountEarned(),
	}
	for _, g := range a.ByLevel {
		out.ByLevel = append(out.ByLevel, LevelGroupResponse{Level: g.Level, Quests: questResponses(g.Quests)})
	}
	for _, b := range a.Badges {
		out.Badges = append(out.Badges, BadgeResponse{ID: b.ID, Name: b.Name, Description: b.Description, Icon: b.Icon, Earned: b.Earned})
	}
	return c.JSON(out)
}

// ListQuests handles GET /api/v1/users/:id/quests.
func (h *Handlers) ListQuests(c *fiber.Ctx) error {
	id, err := userID(c)
	if err != nil {
		return err
	}
	quests, err := h.svc.ListQuests(c.UserContext(), id)
	if err != nil {
		return err
	}
	open := 0
	for _, q := range quests {
		if q.IsOpen() {
			open++
		}
	}
	return c.JSON(QuestListResponse{Quests: questResponses(quests), Open: open, Limit: engine.MaxOpenQuests})
}

// CreateQuest handles POST /api/v1/users/:id/quests.
func (h *Handlers) CreateQuest(c *fiber.Ctx) error {
	id, err := userID(c)
	if err != nil {
		return err
	}
	var req CreateQuestRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	in, err := engine.QuestDraft{
		Title:         req.Title,
		Description:   req.Description,
		Difficulty:    req.Difficulty,
		EstimatedTime: req.EstimatedTime,
		TargetStats:   req.TargetStats,
	}.Input(false)
	if err != nil {
		return err
	}
	q, err := h.svc.CreateQuest(c.UserContext(), id, in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(questResponse(q))
}

// GenerateQuests handles POST /api/v1/users/:id/quests/generate.
func (h *Handlers) GenerateQuests(c *fiber.Ctx) error {
	id, err := userID(c)
	if err != nil {
		return err
	}
	quests, err := h.svc.GenerateQuests(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"quests": questResponses(quests)})
}

// CompleteQuest handles PATCH /api/v1/users/:id/quests/:questID/complete.
func (h *Handlers) CompleteQuest(c *fiber.Ctx) error {
	id, err := userID(c)
	if err != nil {
		return err
	}
	qid, err := questID(c)
	if err != nil {
		return err
	}
	res, err := h.svc.CompleteQuest(c.UserContext(), id, qid)
	if err != nil {
		return err
	}
	p := h.svc.Policy().Progress(res.Stats)
	return c.JSON(CompleteQuestResponse{
		Quest:      questResponse(res.Quest),
		Stats:      statsResponse(res.Stats, &p),
		Increases:  increaseResponses(res.Increases),
		CanLevelUp: res.CanLevelUp,
	})
}

// DeleteQuest handles DELETE /api/v1/users/:id/quests/:questID.
func (h *Handlers) DeleteQuest(c *fiber.Ctx) error {
	id, err := userID(c)
	if err != nil {
		return err
	}
	qid, err := questID(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteQuest(c.UserContext(), id, qid); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
