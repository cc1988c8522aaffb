package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strconv"

	"market-dashboard/src/helpers"
	"market-dashboard/src/interfaces"
	"market-dashboard/src/logger"
	"market-dashboard/src/models"
)

// ChartBackendClient talks to the REST chart backend.
type ChartBackendClient struct {
	Network interfaces.INetworkManager
	Logger  *logger.Logger
}

// -----------------------------------------------------------------------------

func NewChartBackendClient(netMgr interfaces.INetworkManager) *ChartBackendClient {
	return &ChartBackendClient{
		Network: netMgr,
		Logger:  logger.NewLogger(nil, "ChartBackend"),
	}
}

// -----------------------------------------------------------------------------

func decode[T any](body []byte, what string) (T, error) {
	var out T
	if err := json.Unmarshal(body, &out); err != nil {
		return out, helpers.NewValidationError(fmt.Sprintf("malformed %s response", what), err)
	}
	return out, nil
}

// -----------------------------------------------------------------------------
// Authentication
// -----------------------------------------------------------------------------

// Login authenticates and installs the returned token on the network manager.
func (c *ChartBackendClient) Login(ctx context.Context, creds models.MLoginCredentials) (models.MLoginResponse, error) {
	c.Logger.Info("Logging in user: %s", creds.Username)
	body, err := c.Network.PostJSON(ctx, "/auth/login", creds)
	if err != nil {
		return models.MLoginResponse{}, err
	}
	resp, err := decode[models.MLoginResponse](body, "login")
	if err != nil {
		return resp, err
	}
	if resp.AccessToken != "" {
		c.Network.SetToken(resp.AccessToken)
	}
	return resp, nil
}

// -----------------------------------------------------------------------------

func (c *ChartBackendClient) Register(ctx context.Context, data models.MRegisterData) (models.MMessageResponse, error) {
	c.Logger.Info("Registering user: %s", data.Username)
	body, err := c.Network.PostJSON(ctx, "/auth/register", data)
	if err != nil {
		return models.MMessageResponse{}, err
	}
	return decode[models.MMessageResponse](body, "register")
}

// -----------------------------------------------------------------------------

func (c *ChartBackendClient) Profile(ctx context.Context) (models.MUser, error) {
	body, err := c.Network.Get(ctx, "/auth/profile", nil)
	if err != nil {
		return models.MUser{}, err
	}
	return decode[models.MUser](body, "profile")
}

// -----------------------------------------------------------------------------

func (c *ChartBackendClient) Me(ctx context.Context) (models.MUser, error) {
	body, err := c.Network.Get(ctx, "/auth/me", nil)
	if err != nil {
		return models.MUser{}, err
	}
	return decode[models.MUser](body, "me")
}

// -----------------------------------------------------------------------------
// Data management
// -----------------------------------------------------------------------------

func (c *ChartBackendClient) UploadLinearData(ctx context.Context, filename string, content io.Reader) (models.MUploadStats, error) {
	return c.upload(ctx, "/charts/upload", filename, content)
}

// -----------------------------------------------------------------------------

func (c *ChartBackendClient) UploadCandlestickData(ctx context.Context, filename string, content io.Reader) (models.MUploadStats, error) {
	return c.upload(ctx, "/charts/upload-candlestick", filename, content)
}

// -----------------------------------------------------------------------------

func (c *ChartBackendClient) upload(ctx context.Context, path, filename string, content io.Reader) (models.MUploadStats, error) {
	c.Logger.Info("Uploading %s to %s", filename, path)
	body, err := c.Network.PostFile(ctx, path, filename, content)
	if err != nil {
		return models.MUploadStats{}, err
	}
	return decode[models.MUploadStats](body, "upload")
}

// -----------------------------------------------------------------------------

// ResetData drops stored data of one ticker, or everything when ticker is empty.
func (c *ChartBackendClient) ResetData(ctx context.Context, ticker string) (models.MMessageResponse, error) {
	path := "/charts/reset"
	if ticker != "" {
		path += "?ticker=" + url.QueryEscape(ticker)
		c.Logger.Warning("Resetting data of ticker %s", ticker)
	} else {
		c.Logger.Warning("Resetting all data")
	}
	body, err := c.Network.PostJSON(ctx, path, nil)
	if err != nil {
		return models.MMessageResponse{}, err
	}
	return decode[models.MMessageResponse](body, "reset")
}

// -----------------------------------------------------------------------------
// Groups, tickers and chart data
// -----------------------------------------------------------------------------

func (c *ChartBackendClient) AvailableGroups(ctx context.Context) (models.MGroupsData, error) {
	body, err := c.Network.Get(ctx, "/charts/api/available-groups", nil)
	if err != nil {
		return nil, err
	}
	groups, err := decode[models.MGroupsData](body, "groups")
	if err != nil {
		return nil, err
	}
	c.Logger.Debug("Received %d groups", len(groups))
	return groups, nil
}

// -----------------------------------------------------------------------------

func (c *ChartBackendClient) Tickers(ctx context.Context) ([]string, error) {
	body, err := c.Network.Get(ctx, "/charts/api/tickers", nil)
	if err != nil {
		return nil, err
	}
	return decode[[]string](body, "tickers")
}

// -----------------------------------------------------------------------------

func (c *ChartBackendClient) ChartData(ctx context.Context, group string) (models.MGroupChartData, error) {
	body, err := c.Network.Get(ctx, "/charts/api/chart-data", map[string]string{"group": group})
	if err != nil {
		return nil, err
	}
	data, err := decode[models.MGroupChartData](body, "chart data")
	if err != nil {
		return nil, err
	}
	c.Logger.Debug("Received chart data for group %s: %d tickers", group, len(data))
	return data, nil
}

// -----------------------------------------------------------------------------
// Indicators
// -----------------------------------------------------------------------------

func (c *ChartBackendClient) IndicatorSettings(ctx context.Context) (models.MIndicatorSettings, error) {
	body, err := c.Network.Get(ctx, "/charts/getIndicatorSettings", nil)
	if err != nil {
		return models.MIndicatorSettings{}, err
	}
	return decode[models.MIndicatorSettings](body, "indicator settings")
}

// -----------------------------------------------------------------------------

func (c *ChartBackendClient) Indicator(ctx context.Context, ticker, indicator string, period int) (models.MIndicatorResponse, error) {
	path := "/charts/indicators/" + url.PathEscape(ticker)
	body, err := c.Network.Get(ctx, path, map[string]string{
		"indicator": indicator,
		"period":    strconv.Itoa(period),
	})
	if err != nil {
		return models.MIndicatorResponse{}, err
	}
	return decode[models.MIndicatorResponse](body, "indicator")
}

// -----------------------------------------------------------------------------

func (c *ChartBackendClient) SetIndicators(ctx context.Context, settings models.MIndicatorSettings) (models.MMessageResponse, error) {
	c.Logger.Info("Setting indicators: ema=%v rsi=%d", settings.EmaPeriods, settings.RsiPeriod)
	body, err := c.Network.PostJSON(ctx, "/charts/set-indicators", settings)
	if err != nil {
		return models.MMessageResponse{}, err
	}
	return decode[models.MMessageResponse](body, "set indicators")
}

// -----------------------------------------------------------------------------
// Invites
// -----------------------------------------------------------------------------

func (c *ChartBackendClient) CreateInvite(ctx context.Context, req models.MInviteRequest) (models.MInvite, error) {
	body, err := c.Network.PostJSON(ctx, "/invites/create", req)
	if err != nil {
		return models.MInvite{}, err
	}
	return decode[models.MInvite](body, "invite")
}

// -----------------------------------------------------------------------------

func (c *ChartBackendClient) MyInvites(ctx context.Context) ([]models.MInvite, error) {
	body, err := c.Network.Get(ctx, "/invites/my", nil)
	if err != nil {
		return nil, err
	}
	return decode[[]models.MInvite](body, "invites")
}

// -----------------------------------------------------------------------------

func (c *ChartBackendClient) ValidateInvite(ctx context.Context, code string) (map[string]interface{}, error) {
	body, err := c.Network.Get(ctx, "/invites/validate/"+url.PathEscape(code), nil)
	if err != nil {
		return nil, err
	}
	return decode[map[string]interface{}](body, "invite validation")
}

// -----------------------------------------------------------------------------

func (c *ChartBackendClient) DeleteInvite(ctx context.Context, id string) (models.MMessageResponse, error) {
	body, err := c.Network.Delete(ctx, "/invites/"+url.PathEscape(id), nil)
	if err != nil {
		return models.MMessageResponse{}, err
	}
	return decode[models.MMessageResponse](body, "delete invite")
}

// -----------------------------------------------------------------------------
// Administration
// -----------------------------------------------------------------------------

// Users returns the user listing; the backend wraps it as {users, total}.
func (c *ChartBackendClient) Users(ctx context.Context) ([]models.MApiUser, error) {
	body, err := c.Network.Get(ctx, "/admin/users", nil)
	if err != nil {
		return nil, err
	}
	resp, err := decode[models.MUsersResponse](body, "users")
	if err != nil {
		return nil, err
	}
	if resp.Users == nil {
		return []models.MApiUser{}, nil
	}
	return resp.Users, nil
}

// -----------------------------------------------------------------------------

func (c *ChartBackendClient) DeleteUser(ctx context.Context, id int) (models.MMessageResponse, error) {
	body, err := c.Network.Delete(ctx, fmt.Sprintf("/admin/users/%d", id), nil)
	if err != nil {
		return models.MMessageResponse{}, err
	}
	return decode[models.MMessageResponse](body, "delete user")
}

// -----------------------------------------------------------------------------

func (c *ChartBackendClient) ToggleUserActive(ctx context.Context, id int) (models.MMessageResponse, error) {
	body, err := c.Network.PostJSON(ctx, fmt.Sprintf("/admin/users/%d/activate", id), nil)
	if err != nil {
		return models.MMessageResponse{}, err
	}
	return decode[models.MMessageResponse](body, "toggle user")
}

// -----------------------------------------------------------------------------

func (c *ChartBackendClient) MakeUserAdmin(ctx context.Context, id int) (models.MMessageResponse, error) {
	body, err := c.Network.PostJSON(ctx, fmt.Sprintf("/admin/users/%d/make-admin", id), nil)
	if err != nil {
		return models.MMessageResponse{}, err
	}
	return decode[models.MMessageResponse](body, "make admin")
}
