package dreams

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ahmetcoskunkizilkaya/dream-journal-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/dream-journal-backend/internal/owner"
	"github.com/ahmetcoskunkizilkaya/dream-journal-backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const eventKeepAlive = 25 * time.Second

type DreamHandler struct {
	service *DreamService
}

func NewDreamHandler(service *DreamService) *DreamHandler {
	return &DreamHandler{service: service}
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
		Error: true, Message: "Unauthorized",
	})
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
		Error: true, Message: message,
	})
}

// respondError maps service errors onto the error envelope. Unexpected errors
// are logged and answered with fallback.
func respondError(c *fiber.Ctx, userID uuid.UUID, err error, fallback string) error {
	switch {
	case IsValidationError(err):
		return badRequest(c, err.Error())
	case errors.Is(err, ErrDreamNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	case errors.Is(err, services.ErrAIUnavailable), errors.Is(err, services.ErrTranscriptionUnavailable):
		slog.Warn("external service unavailable", "user_id", userID.String(), "action", c.Route().Path, "error", err)
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{
			Error: true, Message: "Service temporarily unavailable",
		})
	}

	slog.Error(fallback, "user_id", userID.String(), "dream_id", c.Params("id"), "action", c.Route().Path, "error", err)
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
		Error: true, Message: fallback,
	})
}

func (h *DreamHandler) Create(c *fiber.Ctx) error {
	userID, err := owner.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	var req CreateDreamRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	dream, err := h.service.CreateDream(c.UserContext(), userID, req)
	if err != nil {
		return respondError(c, userID, err, "Failed to create dream")
	}

	return c.Status(fiber.StatusCreated).JSON(dream)
}

func (h *DreamHandler) List(c *fiber.Ctx) error {
	userID, err := owner.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	resp, err := h.service.ListDreams(c.UserContext(), userID, ListFilter{
		Query: c.Query("q"),
		Month: c.Query("month"),
	})
	if err != nil {
		return respondError(c, userID, err, "Failed to fetch dreams")
	}

	return c.JSON(resp)
}

func (h *DreamHandler) Get(c *fiber.Ctx) error {
	userID, err := owner.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	dream, err := h.service.GetDream(c.UserContext(), userID, c.Params("id"))
	if err != nil {
		return respondError(c, userID, err, "Failed to fetch dream")
	}

	return c.JSON(dream)
}

func (h *DreamHandler) Update(c *fiber.Ctx) error {
	userID, err := owner.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	var req UpdateDreamRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	dream, err := h.service.UpdateDream(c.UserContext(), userID, c.Params("id"), req)
	if err != nil {
		return respondError(c, userID, err, "Failed to update dream")
	}

	return c.JSON(dream)
}

func (h *DreamHandler) Delete(c *fiber.Ctx) error {
	userID, err := owner.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	if err := h.service.DeleteDream(c.UserContext(), userID, c.Params("id")); err != nil {
		return respondError(c, userID, err, "Failed to delete dream")
	}

	return c.JSON(dto.MessageResponse{Message: "Dream deleted"})
}

func (h *DreamHandler) Clear(c *fiber.Ctx) error {
	userID, err := owner.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	deleted, err := h.service.ClearDreams(c.UserContext(), userID)
	if err != nil {
		return respondError(c, userID, err, "Failed to clear dreams")
	}

	return c.JSON(ClearResponse{Deleted: deleted})
}

func (h *DreamHandler) Stats(c *fiber.Ctx) error {
	userID, err := owner.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	stats, err := h.service.GetStats(c.UserContext(), userID)
	if err != nil {
		return respondError(c, userID, err, "Failed to compute statistics")
	}

	return c.JSON(stats)
}

func (h *DreamHandler) Months(c *fiber.Ctx) error {
	userID, err := owner.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	months, err := h.service.ListMonths(c.UserContext(), userID)
	if err != nil {
		return respondError(c, userID, err, "Failed to fetch months")
	}

	return c.JSON(fiber.Map{"months": months})
}

func (h *DreamHandler) Export(c *fiber.Ctx) error {
	userID, err := owner.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	export, err := h.service.Export(c.UserContext(), userID)
	if err != nil {
		return respondError(c, userID, err, "Failed to export dreams")
	}

	c.Set(fiber.HeaderContentDisposition, `attachment; filename="dreams.json"`)
	return c.JSON(export)
}

func (h *DreamHandler) Import(c *fiber.Ctx) error {
	userID, err := owner.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	var req ImportRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	imported, err := h.service.Import(c.UserContext(), userID, req.Dreams)
	if err != nil {
		return respondError(c, userID, err, "Failed to import dreams")
	}

	return c.JSON(ImportResponse{Imported: imported})
}

func (h *DreamHandler) Analyze(c *fiber.Ctx) error {
	userID, err := owner.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	dream, err := h.service.AnalyzeDream(c.UserContext(), userID, c.Params("id"))
	if err != nil {
		return respondError(c, userID, err, "Failed to analyze dream")
	}

	analysis := ""
	if dream.Analysis != nil {
		analysis = *dream.Analysis
	}
	return c.JSON(AnalysisResponse{DreamID: dream.ID, Analysis: analysis})
}

func (h *DreamHandler) Recommend(c *fiber.Ctx) error {
	userID, err := owner.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	dream, err := h.service.GenerateRecommendations(c.UserContext(), userID, c.Params("id"))
	if err != nil {
		return respondError(c, userID, err, "Failed to generate recommendations")
	}

	return c.JSON(RecommendationsResponse{DreamID: dream.ID, Recommendations: dream.Recommendations})
}

func (h *DreamHandler) GenerateImage(c *fiber.Ctx) error {
	userID, err := owner.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	var req GenerateImageRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	ref, err := h.service.GenerateImage(c.UserContext(), req)
	if err != nil {
		return respondError(c, userID, err, "Failed to generate image")
	}

	return c.Status(fiber.StatusCreated).JSON(GenerateImageResponse{Image: ref})
}

// Transcribe accepts a multipart upload with the recording in the "audio"
// field and an optional "language" code.
func (h *DreamHandler) Transcribe(c *fiber.Ctx) error {
	userID, err := owner.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	header, err := c.FormFile("audio")
	if err != nil {
		return badRequest(c, "audio file is required")
	}
	audio, err := header.Open()
	if err != nil {
		return badRequest(c, "audio file could not be read")
	}
	defer audio.Close()

	text, err := h.service.Transcribe(c.UserContext(), audio, c.FormValue("language"))
	if err != nil {
		return respondError(c, userID, err, "Failed to transcribe audio")
	}

	return c.JSON(TranscriptionResponse{Text: text})
}

// Events streams the user's change events as server-sent events until the
// client disconnects or the server shuts down.
func (h *DreamHandler) Events(c *fiber.Ctx) error {
	userID, err := owner.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	events, cancel := h.service.Subscribe(userID)

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer cancel()

		ticker := time.NewTicker(eventKeepAlive)
		defer ticker.Stop()

		fmt.Fprint(w, ": connected\n\n")
		if err := w.Flush(); err != nil {
			return
		}
		for {
			select {
			case event, ok := <-events:
				if !ok {
					return
				}
				data, err := json.Marshal(event)
				if err != nil {
					slog.Error("failed to encode change event", "user_id", userID.String(), "error", err)
					continue
				}
				fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, data)
			case <-ticker.C:
				fmt.Fprint(w, ": ping\n\n")
			}
			if err := w.Flush(); err != nil {
				return
			}
		}
	})

	return nil
}
