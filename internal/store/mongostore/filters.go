package mongostore

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/PepaPanda/uu-backend-project/internal/models"
)

// Each builder returns the (filter, update) pair for one conditional write.
// The filter carries the precondition; a zero MatchedCount means it failed.

func addMemberWrite(listID string, m models.MemberRef) (bson.M, bson.M) {
	return bson.M{"_id": listID, "members.user_id": bson.M{"$ne": m.UserID}},
		bson.M{"$push": bson.M{"members": m}}
}

func removeMemberWrite(listID, userID string) (bson.M, bson.M) {
	return bson.M{"_id": listID, "owner.user_id": bson.M{"$ne": userID}},
		bson.M{"$pull": bson.M{"members": bson.M{"user_id": userID}}}
}

func insertItemWrite(listID string, item models.Item) (bson.M, bson.M) {
	return bson.M{"_id": listID}, bson.M{"$push": bson.M{"items": item}}
}

func updateItemWrite(listID, itemID string, upd models.ItemUpdate) (bson.M, bson.M) {
	set := bson.M{}
	if upd.Name != nil {
		set["items.$.name"] = *upd.Name
	}
	if upd.Resolved != nil {
		set["items.$.resolved"] = *upd.Resolved
	}
	return bson.M{"_id": listID, "items.id": itemID}, bson.M{"$set": set}
}

func deleteItemWrite(listID, itemID string) (bson.M, bson.M) {
	return bson.M{"_id": listID, "items.id": itemID},
		bson.M{"$pull": bson.M{"items": bson.M{"id": itemID}}}
}

// listFieldsPipeline is an update pipeline: inside one $set stage every
// field path resolves against the stored document, so archived_at is derived
// from the status as it was before this write.
func listFieldsPipeline(upd models.ListFieldsUpdate, now time.Time) bson.A {
	set := bson.M{}
	if upd.Name != nil {
		set["name"] = bson.M{"$literal": *upd.Name}
	}
	if upd.Status != nil {
		next := string(*upd.Status)
		set["status"] = bson.M{"$literal": next}
		set["archived_at"] = bson.M{"$switch": bson.M{
			"branches": bson.A{
				bson.M{
					"case": bson.M{"$and": bson.A{
						bson.M{"$ne": bson.A{"$status", string(models.ListStatusArchived)}},
						bson.M{"$eq": bson.A{next, string(models.ListStatusArchived)}},
					}},
					"then": now,
				},
				bson.M{
					"case": bson.M{"$and": bson.A{
						bson.M{"$eq": bson.A{"$status", string(models.ListStatusArchived)}},
						bson.M{"$eq": bson.A{next, string(models.ListStatusActive)}},
					}},
					"then": nil,
				},
			},
			"default": "$archived_at",
		}}
	}
	return bson.A{bson.M{"$set": set}}
}

func addInvitationWrite(email string, inv models.Invitation) (bson.M, bson.M) {
	return bson.M{"email": email, "invitations.list_id": bson.M{"$ne": inv.ListID}},
		bson.M{"$addToSet": bson.M{"invitations": inv}}
}

func removeInvitationWrite(userID, listID string) (bson.M, bson.M) {
	return bson.M{"_id": userID, "invitations.list_id": listID},
		bson.M{"$pull": bson.M{"invitations": bson.M{"list_id": listID}}}
}
