package room

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	echo "github.com/labstack/echo/v4"
	"github.com/v6meet/signaling-server/pkg/protocol"
)

func newTestRouter(t *testing.T) *echo.Echo {
	t.Helper()
	ctrl := &roomController{roomService: newTestRoomService()}
	router := echo.New()
	if err := ctrl.Resolve(router); err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	return router
}

func doJSON(t *testing.T, router *echo.Echo, method, path, body string) (*httptest.ResponseRecorder, *protocol.APIResponse) {
	t.Helper()

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	response := new(protocol.APIResponse)
	if err := json.Unmarshal(rec.Body.Bytes(), response); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return rec, response
}

func TestRoomAPI(t *testing.T) {
	router := newTestRouter(t)

	t.Run("create requires user id", func(t *testing.T) {
		rec, response := doJSON(t, router, http.MethodPost, "/api/rooms", `{"room_id":"r1"}`)
		if rec.Code != http.StatusBadRequest || response.Success {
			t.Fatalf("status=%d success=%v, want 400 failure", rec.Code, response.Success)
		}
	})

	t.Run("create room", func(t *testing.T) {
		rec, response := doJSON(t, router, http.MethodPost, "/api/rooms",
			`{"room_id":"r1","user_id":"u1","room_name":"standup"}`)
		if rec.Code != http.StatusCreated || !response.Success {
			t.Fatalf("status=%d success=%v, want 201 success", rec.Code, response.Success)
		}
	})

	t.Run("duplicate active id conflicts", func(t *testing.T) {
		rec, response := doJSON(t, router, http.MethodPost, "/api/rooms",
			`{"room_id":"r1","user_id":"u2"}`)
		if rec.Code != http.StatusConflict || response.Success {
			t.Fatalf("status=%d success=%v, want 409 failure", rec.Code, response.Success)
		}
		if response.ErrorCode != http.StatusConflict {
			t.Fatalf("error_code=%d, want 409", response.ErrorCode)
		}
	})

	t.Run("join room", func(t *testing.T) {
		rec, response := doJSON(t, router, http.MethodPost, "/api/rooms/r1/join", `{"user_id":"u2"}`)
		if rec.Code != http.StatusOK || !response.Success {
			t.Fatalf("status=%d success=%v, want 200 success", rec.Code, response.Success)
		}
	})

	t.Run("join unknown room", func(t *testing.T) {
		rec, _ := doJSON(t, router, http.MethodPost, "/api/rooms/ghost/join", `{"user_id":"u2"}`)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("status=%d, want 404", rec.Code)
		}
	})

	t.Run("list active rooms", func(t *testing.T) {
		rec, response := doJSON(t, router, http.MethodGet, "/api/rooms", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status=%d, want 200", rec.Code)
		}
		data := response.Data.(map[string]any)
		if data["total_count"].(float64) != 1 {
			t.Fatalf("total_count=%v, want 1", data["total_count"])
		}
	})

	t.Run("get room", func(t *testing.T) {
		rec, _ := doJSON(t, router, http.MethodGet, "/api/rooms/r1", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status=%d, want 200", rec.Code)
		}
	})

	t.Run("room members", func(t *testing.T) {
		rec, response := doJSON(t, router, http.MethodGet, "/api/rooms/r1/users", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status=%d, want 200", rec.Code)
		}
		data := response.Data.(map[string]any)
		if data["user_count"].(float64) != 2 {
			t.Fatalf("user_count=%v, want 2", data["user_count"])
		}
	})

	t.Run("unknown room is 404", func(t *testing.T) {
		rec, _ := doJSON(t, router, http.MethodGet, "/api/rooms/ghost", "")
		if rec.Code != http.StatusNotFound {
			t.Fatalf("status=%d, want 404", rec.Code)
		}
	})

	t.Run("delete room", func(t *testing.T) {
		rec, _ := doJSON(t, router, http.MethodDelete, "/api/rooms/r1", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status=%d, want 200", rec.Code)
		}
		rec, _ = doJSON(t, router, http.MethodGet, "/api/rooms/r1", "")
		if rec.Code != http.StatusNotFound {
			t.Fatalf("status=%d after delete, want 404", rec.Code)
		}
	})
}
