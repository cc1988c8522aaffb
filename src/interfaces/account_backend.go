package interfaces

import (
	"context"
	"io"

	"market-dashboard/src/models"
)

// -----------------------------------------------------------------------------
// IAccountBackend is the account and administration side of the chart backend.
// -----------------------------------------------------------------------------

type IAccountBackend interface {
	Register(ctx context.Context, data models.MRegisterData) (models.MMessageResponse, error)
	Profile(ctx context.Context) (models.MUser, error)
	Me(ctx context.Context) (models.MUser, error)

	// -----------------------------------------------------------------------------

	// Tickers lists every ticker known to the backend.
	Tickers(ctx context.Context) ([]string, error)

	// -----------------------------------------------------------------------------

	// UploadLinearData and UploadCandlestickData import a spreadsheet.
	UploadLinearData(ctx context.Context, filename string, content io.Reader) (models.MUploadStats, error)
	UploadCandlestickData(ctx context.Context, filename string, content io.Reader) (models.MUploadStats, error)

	// ResetData drops stored data, for one ticker or for all when ticker is empty.
	ResetData(ctx context.Context, ticker string) (models.MMessageResponse, error)

	// -----------------------------------------------------------------------------

	SetIndicators(ctx context.Context, settings models.MIndicatorSettings) (models.MMessageResponse, error)

	// -----------------------------------------------------------------------------

	CreateInvite(ctx context.Context, req models.MInviteRequest) (models.MInvite, error)
	MyInvites(ctx context.Context) ([]models.MInvite, error)
	ValidateInvite(ctx context.Context, code string) (map[string]interface{}, error)
	DeleteInvite(ctx context.Context, id string) (models.MMessageResponse, error)

	// -----------------------------------------------------------------------------

	Users(ctx context.Context) ([]models.MApiUser, error)
	DeleteUser(ctx context.Context, id int) (models.MMessageResponse, error)
	ToggleUserActive(ctx context.Context, id int) (models.MMessageResponse, error)
	MakeUserAdmin(ctx context.Context, id int) (models.MMessageResponse, error)
}
