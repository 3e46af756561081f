package alerts

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/zilgopy/exa-mcp/internal/graphql"
)

// mockGraphQLClient implements graphql.Client via a function field.
type mockGraphQLClient struct {
	executeFunc func(ctx context.Context, query string, variables map[string]any) ([]byte, error)
}

var _ graphql.Client = (*mockGraphQLClient)(nil)

func (m *mockGraphQLClient) Execute(ctx context.Context, query string, variables map[string]any) ([]byte, error) {
	return m.executeFunc(ctx, query, variables)
}

func Test_RecentErrors_ReturnsAlerts(t *testing.T) {
	var gotVars map[string]any
	mgr := NewGraphQLAlertManager(&mockGraphQLClient{
		executeFunc: func(ctx context.Context, query string, variables map[string]any) ([]byte, error) {
			gotVars = variables
			if !strings.Contains(query, "severity: Error") {
				t.Errorf("query = %q, want Error severity filter", query)
			}
			if !strings.Contains(query, "dir: DESC") {
				t.Errorf("query = %q, want newest-first ordering", query)
			}
			return []byte(`{"alert":{"list":{"data":[{"id":9,"message":"OST offline"}]}}}`), nil
		},
	})

	list, err := mgr.RecentErrors(context.Background(), 5)
	if err != nil {
		t.Fatalf("RecentErrors: %v", err)
	}
	if len(list) != 1 || list[0].ID != 9 || list[0].Message != "OST offline" {
		t.Errorf("list = %+v, want single OST offline alert", list)
	}
	if gotVars["number"] != 5 {
		t.Errorf("variables[number] = %v, want 5", gotVars["number"])
	}
}

func Test_RecentErrors_NonPositiveNumber(t *testing.T) {
	mgr := NewGraphQLAlertManager(&mockGraphQLClient{
		executeFunc: func(ctx context.Context, query string, variables map[string]any) ([]byte, error) {
			t.Error("Execute should not be called for invalid input")
			return nil, nil
		},
	})

	for _, n := range []int{0, -3} {
		if _, err := mgr.RecentErrors(context.Background(), n); err == nil {
			t.Errorf("RecentErrors(%d): expected error, got nil", n)
		}
	}
}

func Test_RecentErrors_ClientError(t *testing.T) {
	mgr := NewGraphQLAlertManager(&mockGraphQLClient{
		executeFunc: func(ctx context.Context, query string, variables map[string]any) ([]byte, error) {
			return nil, fmt.Errorf("boom")
		},
	})

	_, err := mgr.RecentErrors(context.Background(), 10)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "alerts list") {
		t.Errorf("error = %q, want alerts list context", err.Error())
	}
}

// ---------------------------------------------------------------------------
// Tool
// ---------------------------------------------------------------------------

// mockAlertManager implements AlertManager via a function field.
type mockAlertManager struct {
	recentFunc func(ctx context.Context, number int) ([]Alert, error)
}

var _ AlertManager = (*mockAlertManager)(nil)

func (m *mockAlertManager) RecentErrors(ctx context.Context, number int) ([]Alert, error) {
	return m.recentFunc(ctx, number)
}

func newCallToolRequest(name string, args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func extractResultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if result == nil || len(result.Content) == 0 {
		t.Fatal("result has no content")
	}
	tc, ok := mcp.AsTextContent(result.Content[0])
	if !ok {
		t.Fatalf("first content entry is not TextContent, got %T", result.Content[0])
	}
	return tc.Text
}

func Test_GetErrorsTool_DefaultsToTen(t *testing.T) {
	var gotNumber int
	mgr := &mockAlertManager{
		recentFunc: func(ctx context.Context, number int) ([]Alert, error) {
			gotNumber = number
			return []Alert{{ID: 1, Message: "MDT degraded"}}, nil
		},
	}

	reg := toolGetErrors(mgr, nil)
	result, err := reg.Handler(context.Background(), newCallToolRequest("get_errors", nil))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}

	if gotNumber != 10 {
		t.Errorf("number = %d, want default 10", gotNumber)
	}
	if !strings.Contains(extractResultText(t, result), "MDT degraded") {
		t.Error("expected alert message in result")
	}
}

func Test_GetErrorsTool_ExplicitNumber(t *testing.T) {
	var gotNumber int
	mgr := &mockAlertManager{
		recentFunc: func(ctx context.Context, number int) ([]Alert, error) {
			gotNumber = number
			return nil, nil
		},
	}

	reg := toolGetErrors(mgr, nil)
	if _, err := reg.Handler(context.Background(), newCallToolRequest("get_errors", map[string]any{"number": 3})); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if gotNumber != 3 {
		t.Errorf("number = %d, want 3", gotNumber)
	}
}

func Test_GetErrorsTool_NonPositiveNumberFallsBack(t *testing.T) {
	var gotNumber int
	mgr := &mockAlertManager{
		recentFunc: func(ctx context.Context, number int) ([]Alert, error) {
			gotNumber = number
			return nil, nil
		},
	}

	reg := toolGetErrors(mgr, nil)
	if _, err := reg.Handler(context.Background(), newCallToolRequest("get_errors", map[string]any{"number": -1})); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if gotNumber != 10 {
		t.Errorf("number = %d, want fallback 10", gotNumber)
	}
}
