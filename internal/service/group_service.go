package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/internal/storage"
	"github.com/mmynk/settleup/pkg/api"
)

// GroupService implements api.GroupServiceHandler.
type GroupService struct {
	api.UnimplementedGroupServiceHandler
	store storage.Store
}

// NewGroupService creates a new GroupService with the given storage backend.
func NewGroupService(store storage.Store) *GroupService {
	return &GroupService{store: store}
}

// CreateGroup creates a group owned by the caller. Members are given by email
// and must already be registered.
func (s *GroupService) CreateGroup(ctx context.Context, req *connect.Request[api.CreateGroupRequest]) (*connect.Response[api.CreateGroupResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Msg.Name)
	if name == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("group name is required"))
	}

	members, err := s.resolveEmails(ctx, req.Msg.MemberEmails)
	if err != nil {
		return nil, err
	}

	group := &models.Group{
		Name:      name,
		CreatedBy: userID,
		Members:   members,
	}
	if err := s.store.CreateGroup(ctx, group); err != nil {
		slog.Error("CreateGroup failed", "error", err)
		return nil, storageError(err)
	}

	slog.Info("Group created", "group_id", group.ID, "members", len(group.Members))

	out, err := s.toAPIGroup(ctx, group)
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&api.CreateGroupResponse{Group: out}), nil
}

// GetGroup retrieves a group the caller belongs to.
func (s *GroupService) GetGroup(ctx context.Context, req *connect.Request[api.GetGroupRequest]) (*connect.Response[api.GetGroupResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	group, err := memberGroup(ctx, s.store, req.Msg.GroupID, userID)
	if err != nil {
		slog.Warn("GetGroup denied", "group_id", req.Msg.GroupID, "error", err)
		return nil, err
	}

	out, err := s.toAPIGroup(ctx, group)
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&api.GetGroupResponse{Group: out}), nil
}

// ListGroups lists the caller's groups, newest first.
func (s *GroupService) ListGroups(ctx context.Context, req *connect.Request[api.ListGroupsRequest]) (*connect.Response[api.ListGroupsResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	groups, err := s.store.ListGroupsForUser(ctx, userID)
	if err != nil {
		slog.Error("ListGroups failed", "user_id", userID, "error", err)
		return nil, storageError(err)
	}

	resp := &api.ListGroupsResponse{Groups: make([]*api.Group, 0, len(groups))}
	for _, g := range groups {
		out, err := s.toAPIGroup(ctx, g)
		if err != nil {
			return nil, err
		}
		resp.Groups = append(resp.Groups, out)
	}
	return connect.NewResponse(resp), nil
}

// AddMember adds a registered user, by email, to a group the caller belongs to.
func (s *GroupService) AddMember(ctx context.Context, req *connect.Request[api.AddMemberRequest]) (*connect.Response[api.AddMemberResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	group, err := memberGroup(ctx, s.store, req.Msg.GroupID, userID)
	if err != nil {
		return nil, err
	}

	ids, err := s.resolveEmails(ctx, []string{req.Msg.Email})
	if err != nil {
		return nil, err
	}
	if err := s.store.AddGroupMembers(ctx, group.ID, ids); err != nil {
		slog.Error("AddMember failed", "group_id", group.ID, "error", err)
		return nil, storageError(err)
	}

	group, err = s.store.GetGroup(ctx, group.ID)
	if err != nil {
		return nil, storageError(err)
	}
	slog.Info("Member added", "group_id", group.ID, "user_id", ids[0])

	out, err := s.toAPIGroup(ctx, group)
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&api.AddMemberResponse{Group: out}), nil
}

// resolveEmails maps registered emails to user IDs, in order.
func (s *GroupService) resolveEmails(ctx context.Context, emails []string) ([]string, error) {
	ids := make([]string, 0, len(emails))
	for _, email := range emails {
		email = strings.ToLower(strings.TrimSpace(email))
		if email == "" {
			continue
		}
		user, err := s.store.GetUserByEmail(ctx, email)
		if errors.Is(err, storage.ErrNotFound) {
			return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("no user registered with email %s", email))
		}
		if err != nil {
			return nil, storageError(err)
		}
		ids = append(ids, user.ID)
	}
	if len(emails) > 0 && len(ids) == 0 {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("email is required"))
	}
	return ids, nil
}

func (s *GroupService) toAPIGroup(ctx context.Context, g *models.Group) (*api.Group, error) {
	users, err := s.store.GetUsersByIDs(ctx, g.Members)
	if err != nil {
		return nil, storageError(err)
	}

	members := make([]api.GroupMember, len(g.Members))
	for i, id := range g.Members {
		members[i] = api.GroupMember{UserID: id}
		if u, ok := users[id]; ok {
			members[i].DisplayName = u.DisplayName
		}
	}
	return &api.Group{
		ID:        g.ID,
		Name:      g.Name,
		CreatedBy: g.CreatedBy,
		Members:   members,
		CreatedAt: g.CreatedAt,
	}, nil
}
