package main

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/lacquer-social/vernis/submissions"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

type sessionClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type sessionAuth struct {
	secret []byte
}

// middleware verifies the bearer session token and stashes the caller's
// identity and role on the request context. Requests without a valid token
// are rejected before any handler runs.
func (a *sessionAuth) middleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get(echo.HeaderAuthorization)
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
		}

		claims := sessionClaims{}
		_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return a.secret, nil
		})
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid session token")
		}
		if claims.Subject == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "session token missing subject")
		}
		c.Set("userID", claims.Subject)
		c.Set("userRole", claims.Role)
		return next(c)
	}
}

func (srv *Server) requireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get("userRole").(string)
			for _, r := range roles {
				if role == r {
					return next(c)
				}
			}
			return echo.NewHTTPError(http.StatusForbidden, "insufficient role")
		}
	}
}

func callerID(c echo.Context) string {
	id, _ := c.Get("userID").(string)
	return id
}

// maps service errors onto the HTTP error taxonomy; unexpected defects
// surface generically without leaking internals
func (srv *Server) serviceError(c echo.Context, err error) error {
	var ve *submissions.ValidationError
	switch {
	case errors.As(err, &ve):
		return echo.NewHTTPError(http.StatusBadRequest, ve.Error())
	case errors.Is(err, submissions.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "submission not found")
	case errors.Is(err, submissions.ErrNotAuthorized):
		return echo.NewHTTPError(http.StatusForbidden, "not authorized")
	case errors.Is(err, submissions.ErrAlreadyReviewed):
		return echo.NewHTTPError(http.StatusConflict, "submission already reviewed")
	}
	srv.logger.Error("request failed", "path", c.Path(), "err", err)
	return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
}

func pathID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid submission id")
	}
	return uint(id), nil
}

type createSubmissionBody struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	MediaURLs   []string `json:"mediaUrls"`
	Tags        []string `json:"tags"`
	DesignType  string   `json:"designType"`
	Difficulty  string   `json:"difficulty"`
	PriceTier   string   `json:"priceTier"`
	Materials   []string `json:"materials"`
}

func (srv *Server) handleCreateSubmission(c echo.Context) error {
	var body createSubmissionBody
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}

	sub, verdict, err := srv.service.Create(c.Request().Context(), submissions.CreateRequest{
		SubmitterID: callerID(c),
		Title:       body.Title,
		Description: body.Description,
		MediaURLs:   body.MediaURLs,
		Tags:        body.Tags,
		DesignType:  body.DesignType,
		Difficulty:  body.Difficulty,
		PriceTier:   body.PriceTier,
		Materials:   body.Materials,
	})
	if err != nil {
		return srv.serviceError(c, err)
	}
	return c.JSON(http.StatusCreated, map[string]any{
		"submission": sub,
		"verdict":    verdict,
	})
}

func (srv *Server) handleGetSubmission(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	sub, err := srv.service.Get(c.Request().Context(), id)
	if err != nil {
		return srv.serviceError(c, err)
	}
	// submitters see their own records; review queues need a role
	role, _ := c.Get("userRole").(string)
	if sub.SubmitterID != callerID(c) && role != "moderator" && role != "admin" {
		return echo.NewHTTPError(http.StatusForbidden, "not authorized")
	}
	return c.JSON(http.StatusOK, sub)
}

func (srv *Server) handleListSubmissions(c echo.Context) error {
	status := submissions.Status(c.QueryParam("status"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	cursor, _ := strconv.ParseUint(c.QueryParam("cursor"), 10, 64)

	subs, err := srv.service.List(c.Request().Context(), status, limit, uint(cursor))
	if err != nil {
		return srv.serviceError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"submissions": subs})
}

type approveBody struct {
	CollectionID string  `json:"collectionId"`
	TrendScore   float64 `json:"trendScore"`
}

func (srv *Server) handleApprove(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var body approveBody
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	sub, err := srv.service.Approve(c.Request().Context(), id, callerID(c), body.CollectionID, body.TrendScore)
	if err != nil {
		return srv.serviceError(c, err)
	}
	return c.JSON(http.StatusOK, sub)
}

type rejectBody struct {
	Reason string `json:"reason"`
}

func (srv *Server) handleReject(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var body rejectBody
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	sub, err := srv.service.Reject(c.Request().Context(), id, callerID(c), body.Reason)
	if err != nil {
		return srv.serviceError(c, err)
	}
	return c.JSON(http.StatusOK, sub)
}

func (srv *Server) handleWithdraw(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	sub, err := srv.service.Withdraw(c.Request().Context(), id, callerID(c))
	if err != nil {
		return srv.serviceError(c, err)
	}
	return c.JSON(http.StatusOK, sub)
}

func (srv *Server) handleCostStats(c echo.Context) error {
	var start, end *time.Time
	if s := c.QueryParam("start"); s != "" {
		t, err := time.Parse(time.DateOnly, s)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid start date")
		}
		start = &t
	}
	if s := c.QueryParam("end"); s != "" {
		t, err := time.Parse(time.DateOnly, s)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid end date")
		}
		// inclusive through the end of the named day
		t = t.Add(24*time.Hour - time.Nanosecond)
		end = &t
	}

	stats, err := srv.ledger.Stats(c.Request().Context(), start, end)
	if err != nil {
		return srv.serviceError(c, err)
	}
	return c.JSON(http.StatusOK, stats)
}
