package mongostore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/PepaPanda/uu-backend-project/internal/models"
)

func TestMembershipWritesCarryPreconditions(t *testing.T) {
	m := models.MemberRef{UserID: "u1", Name: "Max", Email: "m@x.io"}

	filter, update := addMemberWrite("l1", m)
	assert.Equal(t, bson.M{"_id": "l1", "members.user_id": bson.M{"$ne": "u1"}}, filter)
	assert.Equal(t, bson.M{"$push": bson.M{"members": m}}, update)

	filter, update = removeMemberWrite("l1", "u1")
	assert.Equal(t, bson.M{"_id": "l1", "owner.user_id": bson.M{"$ne": "u1"}}, filter)
	assert.Equal(t, bson.M{"$pull": bson.M{"members": bson.M{"user_id": "u1"}}}, update)
}

func TestInvitationWrites(t *testing.T) {
	inv := models.Invitation{ListID: "l1", InvitedBy: "Olga Owner"}

	filter, update := addInvitationWrite("m@x.io", inv)
	assert.Equal(t, bson.M{"email": "m@x.io", "invitations.list_id": bson.M{"$ne": "l1"}}, filter)
	assert.Equal(t, bson.M{"$addToSet": bson.M{"invitations": inv}}, update)

	filter, update = removeInvitationWrite("u1", "l1")
	assert.Equal(t, bson.M{"_id": "u1", "invitations.list_id": "l1"}, filter)
	assert.Equal(t, bson.M{"$pull": bson.M{"invitations": bson.M{"list_id": "l1"}}}, update)
}

func TestItemWrites(t *testing.T) {
	name := "Oat milk"
	filter, update := updateItemWrite("l1", "i1", models.ItemUpdate{Name: &name})
	assert.Equal(t, bson.M{"_id": "l1", "items.id": "i1"}, filter)
	assert.Equal(t, bson.M{"$set": bson.M{"items.$.name": "Oat milk"}}, update)

	filter, update = deleteItemWrite("l1", "i1")
	assert.Equal(t, bson.M{"_id": "l1", "items.id": "i1"}, filter)
	assert.Equal(t, bson.M{"$pull": bson.M{"items": bson.M{"id": "i1"}}}, update)
}

func TestListFieldsPipeline(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	name := "$where"

	pipeline := listFieldsPipeline(models.ListFieldsUpdate{Name: &name}, now)
	require.Len(t, pipeline, 1)
	set := pipeline[0].(bson.M)["$set"].(bson.M)
	assert.Equal(t, bson.M{"$literal": "$where"}, set["name"], "user input is never evaluated as an expression")
	assert.NotContains(t, set, "archived_at")

	archived := models.ListStatusArchived
	pipeline = listFieldsPipeline(models.ListFieldsUpdate{Status: &archived}, now)
	set = pipeline[0].(bson.M)["$set"].(bson.M)
	sw := set["archived_at"].(bson.M)["$switch"].(bson.M)
	assert.Equal(t, "$archived_at", sw["default"])
	branches := sw["branches"].(bson.A)
	require.Len(t, branches, 2)
	assert.Equal(t, now, branches[0].(bson.M)["then"])
	assert.Nil(t, branches[1].(bson.M)["then"])
}
