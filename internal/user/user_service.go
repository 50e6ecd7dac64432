package user

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/v6meet/signaling-server/pkg/protocol"
	"go.uber.org/fx"
)

type User struct {
	ID          protocol.UserID `json:"id"`
	JoinedAt    time.Time       `json:"joined_at"`
	IPv6Support bool            `json:"ipv6_support"`
}

func newUserID() protocol.UserID {
	return fmt.Sprintf("ipv6_user_%s", strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

// UserService keeps every user the relay has ever seen. Records are created
// on first reference, immutable afterwards, and never removed by the relay
// core, so a lookup by a stale identity keeps working after the user left
// all rooms.
type UserService struct {
	sync.Mutex

	logger *slog.Logger
	users  map[protocol.UserID]*User
}

// Ensure returns the user for userID, creating the record when the identity
// is unknown. An empty userID allocates a fresh identity. Never fails.
func (s *UserService) Ensure(userID protocol.UserID) *User {
	s.Lock()
	defer s.Unlock()

	if userID == "" {
		userID = newUserID()
	}

	if u, exist := s.users[userID]; exist {
		return u
	}

	u := &User{
		ID:          userID,
		JoinedAt:    time.Now(),
		IPv6Support: true,
	}
	s.users[userID] = u
	s.logger.Debug("user created", slog.String("user_id", userID))
	return u
}

func (s *UserService) Get(userID protocol.UserID) (*User, error) {
	s.Lock()
	defer s.Unlock()

	u, exist := s.users[userID]
	if !exist {
		return nil, ErrUserNotExist
	}
	return u, nil
}

func (s *UserService) Count() int {
	s.Lock()
	defer s.Unlock()
	return len(s.users)
}

type NewUserServiceParams struct {
	fx.In

	Logger *slog.Logger
}

func NewUserService(params NewUserServiceParams) *UserService {
	return &UserService{
		logger: params.Logger,
		users:  make(map[protocol.UserID]*User),
	}
}
