package service

import (
	"context"
	"testing"

	"connectrpc.com/connect"

	"github.com/mmynk/settleup/pkg/api"
)

func TestCreateGroup(t *testing.T) {
	env := setupTestServer(t)
	alice := env.register(t, "alice@example.com", "Alice")
	env.register(t, "bob@example.com", "Bob")

	resp, err := env.groups.CreateGroup(context.Background(), as(alice, &api.CreateGroupRequest{
		Name:         "Roommates",
		MemberEmails: []string{"Bob@example.com"},
	}))
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}

	group := resp.Msg.Group
	if group.ID == "" {
		t.Error("expected non-empty group ID")
	}
	if group.Name != "Roommates" {
		t.Errorf("name: expected 'Roommates', got '%s'", group.Name)
	}
	if len(group.Members) != 2 {
		t.Fatalf("members: expected 2, got %d", len(group.Members))
	}
	if group.Members[0].UserID != alice.ID || group.Members[0].DisplayName != "Alice" {
		t.Errorf("expected creator first, got %+v", group.Members[0])
	}
	if group.Members[1].DisplayName != "Bob" {
		t.Errorf("expected Bob second, got %+v", group.Members[1])
	}
}

func TestCreateGroupErrors(t *testing.T) {
	env := setupTestServer(t)
	alice := env.register(t, "alice@example.com", "Alice")
	ctx := context.Background()

	_, err := env.groups.CreateGroup(ctx, as(alice, &api.CreateGroupRequest{Name: "  "}))
	assertCode(t, err, connect.CodeInvalidArgument)

	_, err = env.groups.CreateGroup(ctx, as(alice, &api.CreateGroupRequest{
		Name:         "Trip",
		MemberEmails: []string{"ghost@example.com"},
	}))
	assertCode(t, err, connect.CodeInvalidArgument)
}

func TestGroupMembership(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	alice := env.register(t, "alice@example.com", "Alice")
	bob := env.register(t, "bob@example.com", "Bob")
	carol := env.register(t, "carol@example.com", "Carol")

	created, err := env.groups.CreateGroup(ctx, as(alice, &api.CreateGroupRequest{Name: "Trip"}))
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	groupID := created.Msg.Group.ID

	t.Run("non-member cannot read", func(t *testing.T) {
		_, err := env.groups.GetGroup(ctx, as(bob, &api.GetGroupRequest{GroupID: groupID}))
		assertCode(t, err, connect.CodePermissionDenied)
	})

	t.Run("missing group", func(t *testing.T) {
		_, err := env.groups.GetGroup(ctx, as(alice, &api.GetGroupRequest{GroupID: "missing"}))
		assertCode(t, err, connect.CodeNotFound)
	})

	t.Run("member adds by email", func(t *testing.T) {
		resp, err := env.groups.AddMember(ctx, as(alice, &api.AddMemberRequest{GroupID: groupID, Email: "bob@example.com"}))
		if err != nil {
			t.Fatalf("AddMember failed: %v", err)
		}
		if len(resp.Msg.Group.Members) != 2 {
			t.Errorf("members: expected 2, got %d", len(resp.Msg.Group.Members))
		}

		got, err := env.groups.GetGroup(ctx, as(bob, &api.GetGroupRequest{GroupID: groupID}))
		if err != nil {
			t.Fatalf("GetGroup as new member failed: %v", err)
		}
		if got.Msg.Group.Name != "Trip" {
			t.Errorf("name: expected 'Trip', got '%s'", got.Msg.Group.Name)
		}
	})

	t.Run("non-member cannot add", func(t *testing.T) {
		_, err := env.groups.AddMember(ctx, as(carol, &api.AddMemberRequest{GroupID: groupID, Email: "carol@example.com"}))
		assertCode(t, err, connect.CodePermissionDenied)
	})

	t.Run("ListGroups is per caller", func(t *testing.T) {
		resp, err := env.groups.ListGroups(ctx, as(bob, &api.ListGroupsRequest{}))
		if err != nil {
			t.Fatalf("ListGroups failed: %v", err)
		}
		if len(resp.Msg.Groups) != 1 {
			t.Errorf("bob groups: expected 1, got %d", len(resp.Msg.Groups))
		}

		resp, err = env.groups.ListGroups(ctx, as(carol, &api.ListGroupsRequest{}))
		if err != nil {
			t.Fatalf("ListGroups failed: %v", err)
		}
		if len(resp.Msg.Groups) != 0 {
			t.Errorf("carol groups: expected 0, got %d", len(resp.Msg.Groups))
		}
	})
}
