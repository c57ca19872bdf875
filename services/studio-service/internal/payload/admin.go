package payload

import "github.com/vasapolrittideah/couchnbs-api/services/studio-service/internal/model"

type StatusRequest struct {
	Status string `json:"status"`
}

type RoleRequest struct {
	Role string `json:"role"`
}

type UserMessageResponse struct {
	Msg  string           `json:"msg"`
	User model.PublicUser `json:"user"`
}

func PublicUsers(users []*model.User) []model.PublicUser {
	out := make([]model.PublicUser, 0, len(users))
	for _, u := range users {
		out = append(out, u.Public())
	}
	return out
}
