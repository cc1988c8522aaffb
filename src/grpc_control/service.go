package grpc_control

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"market-dashboard/src/analysis"
	"market-dashboard/src/fibonacci"
	"market-dashboard/src/helpers"
	"market-dashboard/src/interfaces"
	"market-dashboard/src/logger"
	"market-dashboard/src/models"
	"market-dashboard/src/state"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// ControlService implements ControlServer on top of the dashboard state.
type ControlService struct {
	Groups    *state.GroupsStore
	Charts    *state.ChartRegistry
	Fibonacci *fibonacci.Sessions
	Facade    *analysis.ChartFacade
	Exchanger interfaces.IDataExchanger
	Logger    *logger.Logger
}

// NewControlService creates a new instance of ControlService. exchanger may
// be nil, in which case nothing is pushed to websocket clients.
func NewControlService(
	groups *state.GroupsStore,
	charts *state.ChartRegistry,
	fib *fibonacci.Sessions,
	facade *analysis.ChartFacade,
	exchanger interfaces.IDataExchanger,
	log *logger.Logger,
) *ControlService {
	return &ControlService{
		Groups:    groups,
		Charts:    charts,
		Fibonacci: fib,
		Facade:    facade,
		Exchanger: exchanger,
		Logger:    log,
	}
}

// -----------------------------------------------------------------------------

func (s *ControlService) GetStatus(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error) {
	committed := 0
	for _, rs := range s.Fibonacci.Retracements() {
		committed += len(rs)
	}

	return toStruct(map[string]interface{}{
		"groups":       s.Charts.Groups(),
		"loaders":      s.Charts.Status(),
		"drawing":      s.Fibonacci.Drawing(),
		"retracements": committed,
		"metrics":      s.Facade.Metrics(),
	})
}

// -----------------------------------------------------------------------------

func (s *ControlService) RefreshGroups(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error) {
	groups, err := s.Groups.Refresh(ctx)
	if err != nil {
		s.Logger.Error("gRPC: groups refresh failed: %v", err)
		return nil, status.Error(codes.Unavailable, helpers.UserMessage(err))
	}

	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)

	if s.Exchanger != nil {
		s.Exchanger.Broadcast(models.MDashboardEvent{
			Type:      models.EventGroupsRefreshed,
			Payload:   groups,
			Timestamp: time.Now().Unix(),
		})
	}

	s.Logger.Info("gRPC: refreshed %d groups", len(names))
	return toStruct(map[string]interface{}{"groups": names, "count": len(names)})
}

// -----------------------------------------------------------------------------

func (s *ControlService) ListRetracements(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error) {
	bySession := s.Fibonacci.Retracements()

	all := make([]models.MFibonacciRetracement, 0)
	for _, key := range s.Fibonacci.Keys() {
		all = append(all, bySession[key]...)
	}
	return toStruct(map[string]interface{}{"retracements": all, "sessions": bySession})
}

// -----------------------------------------------------------------------------

func (s *ControlService) ClearFibonacci(ctx context.Context, req *emptypb.Empty) (*emptypb.Empty, error) {
	s.Fibonacci.ClearAll()
	if s.Exchanger != nil {
		snaps := make(map[string]models.MFibonacciState)
		for _, key := range s.Fibonacci.Keys() {
			snaps[key] = s.Fibonacci.For(key).Snapshot()
		}
		s.Exchanger.Broadcast(models.MDashboardEvent{
			Type:      models.EventFibonacci,
			Payload:   snaps,
			Timestamp: time.Now().Unix(),
		})
	}
	s.Logger.Info("gRPC: Fibonacci drawings cleared")
	return &emptypb.Empty{}, nil
}

// -----------------------------------------------------------------------------

// toStruct converts through JSON so struct tags decide the field names.
func toStruct(fields map[string]interface{}) (*structpb.Struct, error) {
	raw, err := json.Marshal(fields)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	var generic map[string]interface{}
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	out, err := structpb.NewStruct(generic)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return out, nil
}
