package server

import (
	"context"
	"net/http"
	"strconv"

	"market-dashboard/src/interfaces"
	"market-dashboard/src/models"

	"github.com/gin-gonic/gin"
)

// -----------------------------------------------------------------------------
// Account and administration routes. They relay to the chart backend under
// the dashboard's own credentials; the backend enforces the admin role.
// -----------------------------------------------------------------------------

func (s *DashboardServer) accounts(c *gin.Context) (interfaces.IAccountBackend, bool) {
	if s.deps.Accounts == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "account backend is not configured"})
		return nil, false
	}
	return s.deps.Accounts, true
}

func userID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user id must be an integer"})
		return 0, false
	}
	return id, true
}

// reply writes v, or maps err onto a status.
func reply[T any](c *gin.Context, status int, v T, err error) {
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(status, v)
}

// -----------------------------------------------------------------------------
// Auth
// -----------------------------------------------------------------------------

func (s *DashboardServer) registerUser(c *gin.Context) {
	acc, ok := s.accounts(c)
	if !ok {
		return
	}
	var data models.MRegisterData
	if err := c.ShouldBindJSON(&data); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if data.Username == "" || data.Password == "" || data.InviteCode == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username, password and invite_code are required"})
		return
	}
	resp, err := acc.Register(c.Request.Context(), data)
	reply(c, http.StatusCreated, resp, err)
}

func (s *DashboardServer) me(c *gin.Context) {
	if acc, ok := s.accounts(c); ok {
		user, err := acc.Me(c.Request.Context())
		reply(c, http.StatusOK, user, err)
	}
}

func (s *DashboardServer) profile(c *gin.Context) {
	if acc, ok := s.accounts(c); ok {
		user, err := acc.Profile(c.Request.Context())
		reply(c, http.StatusOK, user, err)
	}
}

// -----------------------------------------------------------------------------
// Data management
// -----------------------------------------------------------------------------

// uploadData imports the multipart "file" field. type=candlestick selects the
// OHLC importer, anything else the linear one. Cached groups are dropped so
// the next read sees new tickers.
func (s *DashboardServer) uploadData(c *gin.Context) {
	acc, ok := s.accounts(c)
	if !ok {
		return
	}
	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	file, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer file.Close()

	ctx := c.Request.Context()
	var stats models.MUploadStats
	if c.Query("type") == models.ChartTypeCandlestick {
		stats, err = acc.UploadCandlestickData(ctx, header.Filename, file)
	} else {
		stats, err = acc.UploadLinearData(ctx, header.Filename, file)
	}
	if err != nil {
		writeError(c, err)
		return
	}

	s.Logger.Info("Upload %s: %d new records", header.Filename, stats.Statistics.NewRecordsAdded)
	if groups, err := s.deps.Groups.Refresh(ctx); err == nil {
		s.Broadcast(s.newEvent(models.EventGroupsRefreshed, "", "", groups))
	}
	c.JSON(http.StatusOK, stats)
}

// -----------------------------------------------------------------------------

func (s *DashboardServer) resetData(c *gin.Context) {
	acc, ok := s.accounts(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	resp, err := acc.ResetData(ctx, c.Query("ticker"))
	if err != nil {
		writeError(c, err)
		return
	}
	if groups, err := s.deps.Groups.Refresh(ctx); err == nil {
		s.Broadcast(s.newEvent(models.EventGroupsRefreshed, "", "", groups))
	}
	c.JSON(http.StatusOK, resp)
}

// -----------------------------------------------------------------------------

// setIndicators stores new indicator settings on the backend, then drops the
// loaded series so they are refetched with the new periods.
func (s *DashboardServer) setIndicators(c *gin.Context) {
	acc, ok := s.accounts(c)
	if !ok {
		return
	}
	var settings models.MIndicatorSettings
	if err := c.ShouldBindJSON(&settings); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(settings.EmaPeriods) == 0 || settings.RsiPeriod <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ema_periods and a positive rsi_period are required"})
		return
	}

	ctx := c.Request.Context()
	if _, err := acc.SetIndicators(ctx, settings); err != nil {
		writeError(c, err)
		return
	}
	fresh, err := s.deps.Indicators.Refresh(ctx)
	if err != nil {
		writeError(c, err)
		return
	}
	s.deps.Toggles.ApplySettings(fresh)
	s.Broadcast(s.newEvent(models.EventIndicators, "", "", gin.H{"settings": fresh}))
	c.JSON(http.StatusOK, gin.H{"settings": fresh})
}

// -----------------------------------------------------------------------------
// Invites
// -----------------------------------------------------------------------------

func (s *DashboardServer) createInvite(c *gin.Context) {
	acc, ok := s.accounts(c)
	if !ok {
		return
	}
	var req models.MInviteRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	invite, err := acc.CreateInvite(c.Request.Context(), req)
	reply(c, http.StatusCreated, invite, err)
}

func (s *DashboardServer) listInvites(c *gin.Context) {
	if acc, ok := s.accounts(c); ok {
		invites, err := acc.MyInvites(c.Request.Context())
		reply(c, http.StatusOK, invites, err)
	}
}

func (s *DashboardServer) validateInvite(c *gin.Context) {
	if acc, ok := s.accounts(c); ok {
		result, err := acc.ValidateInvite(c.Request.Context(), c.Param("code"))
		reply(c, http.StatusOK, result, err)
	}
}

func (s *DashboardServer) deleteInvite(c *gin.Context) {
	if acc, ok := s.accounts(c); ok {
		resp, err := acc.DeleteInvite(c.Request.Context(), c.Param("id"))
		reply(c, http.StatusOK, resp, err)
	}
}

// -----------------------------------------------------------------------------
// Users
// -----------------------------------------------------------------------------

func (s *DashboardServer) listUsers(c *gin.Context) {
	if acc, ok := s.accounts(c); ok {
		users, err := acc.Users(c.Request.Context())
		reply(c, http.StatusOK, gin.H{"users": users, "total": len(users)}, err)
	}
}

func (s *DashboardServer) deleteUser(c *gin.Context) {
	s.userAction(c, interfaces.IAccountBackend.DeleteUser)
}

func (s *DashboardServer) toggleUserActive(c *gin.Context) {
	s.userAction(c, interfaces.IAccountBackend.ToggleUserActive)
}

func (s *DashboardServer) makeUserAdmin(c *gin.Context) {
	s.userAction(c, interfaces.IAccountBackend.MakeUserAdmin)
}

type userActionFunc func(interfaces.IAccountBackend, context.Context, int) (models.MMessageResponse, error)

func (s *DashboardServer) userAction(c *gin.Context, action userActionFunc) {
	acc, ok := s.accounts(c)
	if !ok {
		return
	}
	id, ok := userID(c)
	if !ok {
		return
	}
	resp, err := action(acc, c.Request.Context(), id)
	reply(c, http.StatusOK, resp, err)
}
