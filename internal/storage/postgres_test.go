package storage_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	internal_storage "github.com/lemonhall/oa-mvp/internal/storage"
	"github.com/lemonhall/oa-mvp/internal/testutil"
	"github.com/lemonhall/oa-mvp/pkg/models"
	"github.com/lemonhall/oa-mvp/pkg/storage"
)

func TestPostgresStore(t *testing.T) {
	testDB := testutil.SetupTestDB(t)
	defer testDB.Teardown(t)

	// Helper to create a transactional store rolled back after the subtest
	newTxStore := func(t *testing.T) storage.Store {
		store, err := internal_storage.NewPostgresStore(testDB.ConnStr)
		assert.NoError(t, err)
		txStore, err := store.Begin()
		assert.NoError(t, err)
		t.Cleanup(func() { txStore.Rollback() })
		return txStore
	}

	savePosition := func(t *testing.T, store storage.Store, name string) int64 {
		id, err := store.SavePosition(models.Position{Name: name})
		assert.NoError(t, err)
		return id
	}

	saveUser := func(t *testing.T, store storage.Store, username string, positionID *int64) int64 {
		id, err := store.SaveUser(models.User{
			Username: username, FullName: username, PasswordHash: "x",
			Role: models.EmployeeRole, IsActive: true, PositionID: positionID,
		})
		assert.NoError(t, err)
		return id
	}

	t.Run("SaveAndGetUser", func(t *testing.T) {
		store := newTxStore(t)
		pos := savePosition(t, store, "Manager")
		id := saveUser(t, store, "jdoe", &pos)

		u, err := store.GetUser(id)
		assert.NoError(t, err)
		assert.Equal(t, "jdoe", u.Username)
		assert.NotNil(t, u.PositionID)
		assert.Equal(t, pos, *u.PositionID)

		byName, err := store.GetUserByUsername("jdoe")
		assert.NoError(t, err)
		assert.Equal(t, id, byName.ID)

		_, err = store.GetUser(9999)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("ListActiveUsersByPosition", func(t *testing.T) {
		store := newTxStore(t)
		pos := savePosition(t, store, "Manager")
		other := savePosition(t, store, "Finance")
		first := saveUser(t, store, "m1", &pos)
		second := saveUser(t, store, "m2", &pos)
		saveUser(t, store, "f1", &other)

		inactive := models.User{
			ID: second, Username: "m2", FullName: "m2", Role: models.EmployeeRole,
			IsActive: false, PositionID: &pos,
		}
		assert.NoError(t, store.UpdateUser(inactive))

		users, err := store.ListActiveUsersByPosition(pos)
		assert.NoError(t, err)
		assert.Len(t, users, 1)
		assert.Equal(t, first, users[0].ID)
	})

	t.Run("ProcessTypeRoundTrip", func(t *testing.T) {
		store := newTxStore(t)
		pt := models.ProcessType{
			Code: "leave", Name: "Leave", IsActive: true,
			Fields: []models.ProcessField{
				{Key: "start_date", Label: "Start date", Kind: models.DateField, Required: true},
			},
		}
		assert.NoError(t, pt.EncodeFields())
		id, err := store.SaveProcessType(pt)
		assert.NoError(t, err)

		got, err := store.GetProcessTypeByCode("leave")
		assert.NoError(t, err)
		assert.Equal(t, id, got.ID)
		got.DecodeFields()
		assert.Len(t, got.Fields, 1)
		assert.Equal(t, "start_date", got.Fields[0].Key)

		disabled := got
		disabled.IsActive = false
		assert.NoError(t, store.UpdateProcessType(disabled))

		active, err := store.ListProcessTypes(true)
		assert.NoError(t, err)
		assert.Len(t, active, 0)
		all, err := store.ListProcessTypes(false)
		assert.NoError(t, err)
		assert.Len(t, all, 1)
	})

	t.Run("WorkflowNodesOrderedByStep", func(t *testing.T) {
		store := newTxStore(t)
		pos := savePosition(t, store, "Manager")
		wfID, err := store.SaveWorkflow(models.Workflow{Name: "Reimburse", RequestType: "reimburse", IsActive: true})
		assert.NoError(t, err)

		_, err = store.SaveWorkflowNode(models.WorkflowNode{WorkflowID: wfID, StepOrder: 2, PositionID: pos, Name: "Second"})
		assert.NoError(t, err)
		_, err = store.SaveWorkflowNode(models.WorkflowNode{WorkflowID: wfID, StepOrder: 1, PositionID: pos, Name: "First"})
		assert.NoError(t, err)

		nodes, err := store.ListWorkflowNodes(wfID)
		assert.NoError(t, err)
		assert.Len(t, nodes, 2)
		assert.Equal(t, "First", nodes[0].Name)
		assert.Equal(t, "Second", nodes[1].Name)
	})

	t.Run("DuplicateStepOrderIsRejectedByTheSchema", func(t *testing.T) {
		store := newTxStore(t)
		pos := savePosition(t, store, "Manager")
		wfID, err := store.SaveWorkflow(models.Workflow{Name: "Reimburse", RequestType: "reimburse", IsActive: true})
		assert.NoError(t, err)

		_, err = store.SaveWorkflowNode(models.WorkflowNode{WorkflowID: wfID, StepOrder: 1, PositionID: pos, Name: "First"})
		assert.NoError(t, err)
		_, err = store.SaveWorkflowNode(models.WorkflowNode{WorkflowID: wfID, StepOrder: 1, PositionID: pos, Name: "Dup"})
		assert.Error(t, err)
	})

	t.Run("ListActiveWorkflowsByType", func(t *testing.T) {
		store := newTxStore(t)
		_, err := store.SaveWorkflow(models.Workflow{Name: "Leave v1", RequestType: "leave", IsActive: false})
		assert.NoError(t, err)
		activeID, err := store.SaveWorkflow(models.Workflow{Name: "Leave v2", RequestType: "leave", IsActive: true})
		assert.NoError(t, err)
		_, err = store.SaveWorkflow(models.Workflow{Name: "Other", RequestType: "reimburse", IsActive: true})
		assert.NoError(t, err)

		active, err := store.ListActiveWorkflowsByType("leave")
		assert.NoError(t, err)
		assert.Len(t, active, 1)
		assert.Equal(t, activeID, active[0].ID)
	})

	t.Run("DeleteWorkflowNode", func(t *testing.T) {
		store := newTxStore(t)
		pos := savePosition(t, store, "Manager")
		wfID, err := store.SaveWorkflow(models.Workflow{Name: "Leave", RequestType: "leave", IsActive: true})
		assert.NoError(t, err)
		nodeID, err := store.SaveWorkflowNode(models.WorkflowNode{WorkflowID: wfID, StepOrder: 1, PositionID: pos, Name: "Only"})
		assert.NoError(t, err)

		assert.NoError(t, store.DeleteWorkflowNode(wfID, nodeID))
		assert.ErrorIs(t, store.DeleteWorkflowNode(wfID, nodeID), storage.ErrNotFound)
	})

	t.Run("DeleteWorkflowNodeStillReferenced", func(t *testing.T) {
		store := newTxStore(t)
		pos := savePosition(t, store, "Manager")
		creator := saveUser(t, store, "employee", nil)
		wfID, err := store.SaveWorkflow(models.Workflow{Name: "Leave", RequestType: "leave", IsActive: true})
		assert.NoError(t, err)
		nodeID, err := store.SaveWorkflowNode(models.WorkflowNode{WorkflowID: wfID, StepOrder: 1, PositionID: pos, Name: "Review"})
		assert.NoError(t, err)

		now := time.Now()
		_, err = store.SaveRequest(models.Request{
			Type: "leave", Title: "Summer", FormJSON: "{}",
			Status: models.PendingRequestStatus, WorkflowID: &wfID,
			CurrentNodeID: &nodeID, CreatedByUserID: creator,
			CreatedAt: now, UpdatedAt: now,
		})
		assert.NoError(t, err)

		assert.ErrorIs(t, store.DeleteWorkflowNode(wfID, nodeID), storage.ErrReferenced)
	})

	t.Run("RequestLifecycleState", func(t *testing.T) {
		store := newTxStore(t)
		pos := savePosition(t, store, "Manager")
		creator := saveUser(t, store, "employee", nil)
		approver := saveUser(t, store, "manager", &pos)
		wfID, err := store.SaveWorkflow(models.Workflow{Name: "Leave", RequestType: "leave", IsActive: true})
		assert.NoError(t, err)
		nodeID, err := store.SaveWorkflowNode(models.WorkflowNode{WorkflowID: wfID, StepOrder: 1, PositionID: pos, Name: "Review"})
		assert.NoError(t, err)

		now := time.Now()
		reqID, err := store.SaveRequest(models.Request{
			Type: "leave", Title: "Summer", FormJSON: "{}",
			Status: models.PendingRequestStatus, WorkflowID: &wfID,
			CurrentNodeID: &nodeID, CreatedByUserID: creator,
			ApproverUserID: &approver, CreatedAt: now, UpdatedAt: now,
		})
		assert.NoError(t, err)

		locked, err := store.GetRequestForUpdate(reqID)
		assert.NoError(t, err)
		assert.Equal(t, models.PendingRequestStatus, locked.Status)
		assert.Equal(t, nodeID, *locked.CurrentNodeID)

		pending, err := store.ListPendingRequestsByPosition(pos)
		assert.NoError(t, err)
		assert.Len(t, pending, 1)

		locked.Status = models.ApprovedRequestStatus
		locked.CurrentNodeID = nil
		locked.ApproverUserID = nil
		assert.NoError(t, store.UpdateRequestState(locked))

		got, err := store.GetRequest(reqID)
		assert.NoError(t, err)
		assert.Equal(t, models.ApprovedRequestStatus, got.Status)
		assert.Nil(t, got.CurrentNodeID)
		assert.Nil(t, got.ApproverUserID)

		pending, err = store.ListPendingRequestsByPosition(pos)
		assert.NoError(t, err)
		assert.Len(t, pending, 0)
	})

	t.Run("ApprovalLedgerUniquePerNode", func(t *testing.T) {
		store := newTxStore(t)
		pos := savePosition(t, store, "Manager")
		creator := saveUser(t, store, "employee", nil)
		approver := saveUser(t, store, "manager", &pos)
		wfID, err := store.SaveWorkflow(models.Workflow{Name: "Leave", RequestType: "leave", IsActive: true})
		assert.NoError(t, err)
		nodeID, err := store.SaveWorkflowNode(models.WorkflowNode{WorkflowID: wfID, StepOrder: 1, PositionID: pos, Name: "Review"})
		assert.NoError(t, err)
		now := time.Now()
		reqID, err := store.SaveRequest(models.Request{
			Type: "leave", Title: "Summer", FormJSON: "{}",
			Status: models.PendingRequestStatus, WorkflowID: &wfID,
			CurrentNodeID: &nodeID, CreatedByUserID: creator,
			CreatedAt: now, UpdatedAt: now,
		})
		assert.NoError(t, err)

		_, err = store.SaveApproval(models.Approval{
			RequestID: reqID, WorkflowNodeID: &nodeID, ApproverUserID: approver,
			Decision: models.ApprovedDecision, DecidedAt: now,
		})
		assert.NoError(t, err)
		_, err = store.SaveApproval(models.Approval{
			RequestID: reqID, WorkflowNodeID: &nodeID, ApproverUserID: approver,
			Decision: models.RejectedDecision, DecidedAt: now,
		})
		assert.Error(t, err)
	})

	t.Run("Announcements", func(t *testing.T) {
		store := newTxStore(t)
		author := saveUser(t, store, "admin", nil)
		_, err := store.SaveAnnouncement(models.Announcement{
			Title: "Maintenance window", Content: "Saturday 02:00", CreatedByUserID: author, CreatedAt: time.Now(),
		})
		assert.NoError(t, err)

		out, err := store.ListAnnouncements()
		assert.NoError(t, err)
		assert.Len(t, out, 1)
		assert.Equal(t, "Maintenance window", out[0].Title)
	})
}
