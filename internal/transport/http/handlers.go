package http

import (
	"net/http"
	"strconv"

	"ffquiz-service/internal/app"
	"ffquiz-service/internal/catalog"
	"ffquiz-service/internal/domain"
	"github.com/gin-gonic/gin"
)

// Handler serves the JSON API.
type Handler struct {
	catalog    *catalog.Catalog
	quizzes    *app.QuizService
	profiles   *app.ProfileService
	identity   *app.IdentityService
	redemption *app.Redemption
	board      *app.LeaderboardService
}

func NewHandler(
	cat *catalog.Catalog,
	quizzes *app.QuizService,
	profiles *app.ProfileService,
	identity *app.IdentityService,
	redemption *app.Redemption,
	board *app.LeaderboardService,
) *Handler {
	return &Handler{
		catalog:    cat,
		quizzes:    quizzes,
		profiles:   profiles,
		identity:   identity,
		redemption: redemption,
		board:      board,
	}
}

type gameAuthRequest struct {
	GameID string `json:"gameId" binding:"required"`
	Region string `json:"region" binding:"required"`
}

type emailSignupRequest struct {
	Email       string `json:"email" binding:"required"`
	Password    string `json:"password" binding:"required"`
	DisplayName string `json:"displayName"`
}

type emailLoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type startRequest struct {
	QuizID string `json:"quizId" binding:"required"`
}

type selectRequest struct {
	Option *int `json:"option" binding:"required"`
}

type redeemRequest struct {
	Tier *int `json:"tier" binding:"required"`
}

func badRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

func (h *Handler) Regions(c *gin.Context) {
	c.JSON(http.StatusOK, domain.Regions)
}

func (h *Handler) ListQuizzes(c *gin.Context) {
	category := domain.Category(c.Query("category"))
	if category != "" && !category.Valid() {
		abortWithError(c, domain.ErrInvalidInput)
		return
	}
	c.JSON(http.StatusOK, h.catalog.List(category))
}

func (h *Handler) GetQuiz(c *gin.Context) {
	quiz, err := h.catalog.Quiz(c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"quiz": quiz, "details": quiz.Details})
}

func (h *Handler) ItemDetails(c *gin.Context) {
	details, err := h.catalog.Details(domain.Category(c.Param("category")), c.Param("name"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, details)
}

func (h *Handler) Tiers(c *gin.Context) {
	c.JSON(http.StatusOK, h.redemption.Tiers())
}

func (h *Handler) Leaderboard(c *gin.Context) {
	field := domain.FieldTotalCoins
	if c.Query("by") == "quizzes" {
		field = domain.FieldQuizzesCompleted
	}
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			abortWithError(c, domain.ErrInvalidInput)
			return
		}
		limit = n
	}
	lb, err := h.board.Top(c.Request.Context(), field, limit)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, lb)
}

func (h *Handler) GameSignup(c *gin.Context) {
	var req gameAuthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	res, err := h.identity.SignupWithGameID(c.Request.Context(), req.GameID, req.Region)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h *Handler) GameLogin(c *gin.Context) {
	var req gameAuthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	res, err := h.identity.LoginWithGameID(c.Request.Context(), req.GameID, req.Region)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) EmailSignup(c *gin.Context) {
	var req emailSignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	res, err := h.identity.SignupWithEmail(c.Request.Context(), req.Email, req.Password, req.DisplayName)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h *Handler) EmailLogin(c *gin.Context) {
	var req emailLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	res, err := h.identity.LoginWithEmail(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) Profile(c *gin.Context) {
	p, err := h.profiles.Profile(c.Request.Context(), currentUser(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	p.PasswordHash = ""
	c.JSON(http.StatusOK, p)
}

func (h *Handler) History(c *gin.Context) {
	entries, total, err := h.profiles.History(c.Request.Context(), currentUser(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"attempts": entries, "totalCoinsEarned": total})
}

func (h *Handler) Achievements(c *gin.Context) {
	list, err := h.profiles.Achievements(c.Request.Context(), currentUser(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) StartSession(c *gin.Context) {
	var req startRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	view, err := h.quizzes.Start(c.Request.Context(), currentUser(c), req.QuizID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

func (h *Handler) CurrentSession(c *gin.Context) {
	view, err := h.quizzes.Current(c.Request.Context(), currentUser(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) SelectAnswer(c *gin.Context) {
	var req selectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	view, err := h.quizzes.SelectAnswer(c.Request.Context(), currentUser(c), *req.Option)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) Advance(c *gin.Context) {
	view, err := h.quizzes.Advance(c.Request.Context(), currentUser(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) Settle(c *gin.Context) {
	result, err := h.quizzes.Settle(c.Request.Context(), currentUser(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) Abandon(c *gin.Context) {
	if err := h.quizzes.Abandon(c.Request.Context(), currentUser(c)); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) Redeem(c *gin.Context) {
	var req redeemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	res, err := h.redemption.Redeem(c.Request.Context(), currentUser(c), *req.Tier)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
