package domain

import (
	"errors"
	"time"

	"github.com/samber/lo"
	"golang.org/x/exp/slices"
)

var (
	ErrMemberNotFound      = errors.New("member not found")
	ErrMembersLimitReached = errors.New("members limit reached")
)

type Member struct {
	UserID         string
	Username       string
	IsGuest        bool
	ConnID         string
	JoinedAt       time.Time
	LastHeartbeat  time.Time
	IsReconnecting bool
}

// Members keeps participants in join order.
type Members struct {
	list  []Member
	limit int
}

func NewMembers(limit int) Members {
	return Members{limit: limit}
}

func (m Members) Length() int {
	return len(m.list)
}

func (m Members) AsList() []Member {
	return slices.Clone(m.list)
}

func (m Members) index(userID string) int {
	return slices.IndexFunc(m.list, func(member Member) bool { return member.UserID == userID })
}

func (m Members) GetByID(userID string) (Member, bool) {
	i := m.index(userID)
	if i < 0 {
		return Member{}, false
	}

	return m.list[i], true
}

func (m Members) Has(userID string) bool {
	return m.index(userID) >= 0
}

func (m *Members) Add(member Member) error {
	if len(m.list) >= m.limit {
		return ErrMembersLimitReached
	}

	m.list = append(m.list, member)
	return nil
}

func (m *Members) Update(userID string, fn func(*Member)) error {
	i := m.index(userID)
	if i < 0 {
		return ErrMemberNotFound
	}

	fn(&m.list[i])
	return nil
}

func (m *Members) RemoveByID(userID string) (Member, error) {
	i := m.index(userID)
	if i < 0 {
		return Member{}, ErrMemberNotFound
	}

	member := m.list[i]
	m.list = slices.Delete(m.list, i, i+1)

	return member, nil
}

// Senior returns the member that joined first. Equal join times are ordered by user id.
func (m Members) Senior() (Member, bool) {
	if len(m.list) == 0 {
		return Member{}, false
	}

	return lo.MinBy(m.list, func(a, b Member) bool {
		if !a.JoinedAt.Equal(b.JoinedAt) {
			return a.JoinedAt.Before(b.JoinedAt)
		}
		return a.UserID < b.UserID
	}), true
}
