package handler

import (
	stderrors "errors"
	"strconv"
	"strings"
	"time"

	"github.com/appsparrow/streakzilla/internal/service"
	"github.com/appsparrow/streakzilla/internal/storage"
	"github.com/appsparrow/streakzilla/pkg/errors"
	"github.com/appsparrow/streakzilla/pkg/logger"

	"github.com/gofiber/fiber/v2"
)

type Handler struct {
	challenges *service.ChallengeService
	checkins   *service.CheckinService
	hearts     *service.HeartsService
	selection  *service.SelectionService
	recovery   *service.RecoveryService
	photos     storage.PhotoStore
}

// New wires the HTTP surface. photos may be nil when uploads are disabled;
// check-ins then accept a photo_ref string instead.
func New(
	challenges *service.ChallengeService,
	checkins *service.CheckinService,
	hearts *service.HeartsService,
	selection *service.SelectionService,
	recovery *service.RecoveryService,
	photos storage.PhotoStore,
) *Handler {
	return &Handler{
		challenges: challenges,
		checkins:   checkins,
		hearts:     hearts,
		selection:  selection,
		recovery:   recovery,
		photos:     photos,
	}
}

func (h *Handler) Register(app *fiber.App) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api", UserContext())
	api.Post("/challenges", h.CreateChallenge)
	api.Post("/challenges/join", h.JoinChallenge)
	api.Post("/challenges/:id/leave", h.LeaveChallenge)
	api.Post("/challenges/:id/eliminate", h.EliminateMember)
	api.Get("/challenges/:id/me", h.GetSnapshot)
	api.Get("/challenges/:id/leaderboard", h.GetLeaderboard)
	api.Get("/challenges/:id/habits", h.GetHabits)
	api.Put("/challenges/:id/habits", h.SaveHabits)
	api.Post("/challenges/:id/checkins", h.CheckIn)
	api.Get("/challenges/:id/hearts", h.GetLedger)
	api.Post("/challenges/:id/hearts/gift", h.GiftHearts)
	api.Post("/challenges/:id/hearts/protect", h.ProtectDay)
	api.Post("/challenges/:id/hearts/seed", h.SeedHearts)
	api.Post("/challenges/:id/recalculate", h.Recalculate)
	api.Get("/challenges/:id/backups", h.GetBackups)
}

func statusFor(code string) int {
	switch code {
	case errors.CodeInvalidArgument, errors.CodeNoHabitsSelected, errors.CodeHabitNotSelected, errors.CodeInvalidPointsOverride:
		return fiber.StatusBadRequest
	case errors.CodeNotMember, errors.CodeForbidden, errors.CodeMemberEliminated:
		return fiber.StatusForbidden
	case errors.CodeNotFound:
		return fiber.StatusNotFound
	case errors.CodeAlreadyMember, errors.CodeDuplicateProtection, errors.CodeSelectionFrozen:
		return fiber.StatusConflict
	case errors.CodeInvalidDay, errors.CodeInsufficientHearts, errors.CodeHeartSharingDisabled:
		return fiber.StatusUnprocessableEntity
	default:
		return fiber.StatusInternalServerError
	}
}

func writeError(c *fiber.Ctx, err error) error {
	code := errors.CodeOf(err)
	status := statusFor(code)
	message := err.Error()

	var appErr *errors.AppError
	if stderrors.As(err, &appErr) && status != fiber.StatusInternalServerError {
		message = appErr.Message
	}
	if status == fiber.StatusInternalServerError {
		logger.WithFields(map[string]interface{}{
			"path": c.Path(),
			"code": code,
		}).Error(err)
		message = "internal error"
	}
	return c.Status(status).JSON(fiber.Map{"error": message, "code": code})
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": message, "code": errors.CodeInvalidArgument})
}

type createChallengeBody struct {
	Name         string `json:"name"`
	Mode         string `json:"mode"`
	TemplateID   string `json:"template_id"`
	TemplateKey  string `json:"template_key"`
	StartDate    string `json:"start_date"`
	DurationDays int    `json:"duration_days"`
}

func (h *Handler) CreateChallenge(c *fiber.Ctx) error {
	var body createChallengeBody
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	req := service.CreateChallengeRequest{
		Name:         body.Name,
		Mode:         body.Mode,
		TemplateID:   body.TemplateID,
		TemplateKey:  body.TemplateKey,
		DurationDays: body.DurationDays,
		CreatorID:    currentUser(c),
	}
	if body.StartDate != "" {
		start, err := time.Parse("2006-01-02", body.StartDate)
		if err != nil {
			return badRequest(c, "start_date must be YYYY-MM-DD")
		}
		req.StartDate = start
	}

	challenge, err := h.challenges.Create(c.UserContext(), req)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(challenge)
}

func (h *Handler) JoinChallenge(c *fiber.Ctx) error {
	var body struct {
		Code string `json:"code"`
	}
	if err := c.BodyParser(&body); err != nil || body.Code == "" {
		return badRequest(c, "code is required")
	}
	member, err := h.challenges.Join(c.UserContext(), body.Code, currentUser(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(member)
}

func (h *Handler) LeaveChallenge(c *fiber.Ctx) error {
	if err := h.challenges.Leave(c.UserContext(), c.Params("id"), currentUser(c)); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

type targetBody struct {
	UserID string `json:"user_id"`
	Amount int    `json:"amount"`
	Note   string `json:"note"`
}

func (h *Handler) EliminateMember(c *fiber.Ctx) error {
	var body targetBody
	if err := c.BodyParser(&body); err != nil || body.UserID == "" {
		return badRequest(c, "user_id is required")
	}
	if err := h.challenges.Eliminate(c.UserContext(), c.Params("id"), currentUser(c), body.UserID); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handler) GetSnapshot(c *fiber.Ctx) error {
	snap, err := h.challenges.Snapshot(c.UserContext(), c.Params("id"), currentUser(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(snap)
}

func (h *Handler) GetLeaderboard(c *fiber.Ctx) error {
	board, err := h.challenges.Leaderboard(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"entries": board})
}

func (h *Handler) GetHabits(c *fiber.Ctx) error {
	view, err := h.selection.Habits(c.UserContext(), c.Params("id"), currentUser(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(view)
}

func (h *Handler) SaveHabits(c *fiber.Ctx) error {
	var body struct {
		HabitIDs []string `json:"habit_ids"`
	}
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	view, err := h.selection.SaveSelection(c.UserContext(), c.Params("id"), currentUser(c), body.HabitIDs)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(view)
}

type checkinBody struct {
	DayNumber int      `json:"day_number" form:"day_number"`
	HabitIDs  []string `json:"habit_ids" form:"habit_ids"`
	Note      string   `json:"note" form:"note"`
	PhotoRef  string   `json:"photo_ref" form:"photo_ref"`
}

// CheckIn accepts JSON, or multipart with an optional "photo" file part.
func (h *Handler) CheckIn(c *fiber.Ctx) error {
	var body checkinBody
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	if body.DayNumber < 1 {
		return badRequest(c, "day_number is required")
	}
	body.HabitIDs = splitIDs(body.HabitIDs)

	challengeID := c.Params("id")
	userID := currentUser(c)

	if strings.HasPrefix(string(c.Request().Header.ContentType()), fiber.MIMEMultipartForm) {
		if file, err := c.FormFile("photo"); err == nil {
			if h.photos == nil {
				return badRequest(c, "photo uploads are disabled")
			}
			f, err := file.Open()
			if err != nil {
				return badRequest(c, "unreadable photo")
			}
			defer f.Close()

			ref, err := h.photos.Put(c.UserContext(), storage.PhotoUpload{
				UserID:      userID,
				ChallengeID: challengeID,
				Day:         body.DayNumber,
				Filename:    file.Filename,
				ContentType: file.Header.Get("Content-Type"),
				Size:        file.Size,
				Body:        f,
			})
			if err != nil {
				return writeError(c, err)
			}
			body.PhotoRef = ref
		}
	}

	res, err := h.checkins.CheckIn(c.UserContext(), service.CheckinRequest{
		ChallengeID: challengeID,
		UserID:      userID,
		DayNumber:   body.DayNumber,
		HabitIDs:    body.HabitIDs,
		PhotoRef:    body.PhotoRef,
		Note:        body.Note,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(res)
}

// splitIDs accepts repeated form values as well as one comma-separated value.
func splitIDs(in []string) []string {
	var out []string
	for _, v := range in {
		for _, id := range strings.Split(v, ",") {
			if id = strings.TrimSpace(id); id != "" {
				out = append(out, id)
			}
		}
	}
	return out
}

func (h *Handler) GetLedger(c *fiber.Ctx) error {
	ledger, err := h.hearts.Ledger(c.UserContext(), c.Params("id"), currentUser(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(ledger)
}

func (h *Handler) GiftHearts(c *fiber.Ctx) error {
	var body struct {
		ToUserID string `json:"to_user_id"`
		Amount   int    `json:"amount"`
		Note     string `json:"note"`
	}
	if err := c.BodyParser(&body); err != nil || body.ToUserID == "" {
		return badRequest(c, "to_user_id is required")
	}
	res, err := h.hearts.Gift(c.UserContext(), service.GiftRequest{
		ChallengeID: c.Params("id"),
		FromUserID:  currentUser(c),
		ToUserID:    body.ToUserID,
		Amount:      body.Amount,
		Note:        body.Note,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(res)
}

func (h *Handler) ProtectDay(c *fiber.Ctx) error {
	summary, day, err := h.hearts.ProtectDay(c.UserContext(), c.Params("id"), currentUser(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"protected_day": day, "member": summary})
}

func (h *Handler) SeedHearts(c *fiber.Ctx) error {
	var body targetBody
	if err := c.BodyParser(&body); err != nil || body.UserID == "" {
		return badRequest(c, "user_id is required")
	}
	summary, err := h.hearts.SeedHearts(c.UserContext(), service.SeedRequest{
		ChallengeID: c.Params("id"),
		AdminUserID: currentUser(c),
		UserID:      body.UserID,
		Amount:      body.Amount,
		Note:        body.Note,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(summary)
}

func (h *Handler) Recalculate(c *fiber.Ctx) error {
	var body targetBody
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&body); err != nil {
			return badRequest(c, "invalid request body")
		}
	}
	if body.UserID == "" {
		body.UserID = currentUser(c)
	}
	summary, err := h.recovery.Recalculate(c.UserContext(), c.Params("id"), currentUser(c), body.UserID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(summary)
}

func (h *Handler) GetBackups(c *fiber.Ctx) error {
	limit, err := strconv.Atoi(c.Query("limit", "20"))
	if err != nil || limit < 0 {
		return badRequest(c, "limit must be a non-negative integer")
	}
	backups, err := h.recovery.Backups(c.UserContext(), c.Params("id"), currentUser(c), limit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"backups": backups})
}
