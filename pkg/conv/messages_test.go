package conv

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"teamline/pkg/apperr"
	"teamline/pkg/models"
	"teamline/pkg/notify"
)

func (f fixture) channel(t *testing.T, name string, members ...int64) (int64, models.ConvRef) {
	t.Helper()
	chID, err := f.st.CreateChannel(models.Channel{
		Name: name, IsPublic: true, Members: members, Owners: members[:1],
	})
	require.NoError(t, err)
	return chID, models.ChannelRef(chID)
}

func TestSendGuardsAndTagging(t *testing.T) {
	f := setup(t)
	_, ref := f.channel(t, "general", f.bob, f.carol)

	_, err := f.svc.Send(f.bob, ref, "")
	require.True(t, apperr.IsKind(err, apperr.KindValidation))

	_, err = f.svc.Send(f.owner, ref, "hi") // global owner, not a member
	require.True(t, apperr.IsKind(err, apperr.KindPermission))

	id, err := f.svc.Send(f.bob, ref, "hi @carol")
	require.NoError(t, err)
	require.Equal(t, int64(1), id)

	e := notify.NewEngine(f.st)
	feed, err := e.Feed(f.carol)
	require.NoError(t, err)
	require.Len(t, feed, 1)
	require.Equal(t, "bob tagged you in general: hi @carol", feed[0].Text)
}

func TestEditPermissionsAndEmptyDelete(t *testing.T) {
	f := setup(t)
	_, ref := f.channel(t, "general", f.bob, f.carol)
	id, err := f.svc.Send(f.carol, ref, "tpyo")
	require.NoError(t, err)

	// carol is the sender, bob is the channel owner; both may edit
	require.NoError(t, f.svc.Edit(f.carol, id, "typo"))
	require.NoError(t, f.svc.Edit(f.bob, id, "typo!"))

	// an edit re-notifies on new mentions
	require.NoError(t, f.svc.Edit(f.carol, id, "typo! cc @bob"))
	e := notify.NewEngine(f.st)
	feed, err := e.Feed(f.bob)
	require.NoError(t, err)
	require.Len(t, feed, 1)
	require.Equal(t, "carol tagged you in general: typo! cc @bob", feed[0].Text)

	// plain member who is neither sender nor owner
	require.NoError(t, f.svc.Join(f.owner, ref.ID)) // global owner may edit once inside
	require.NoError(t, f.svc.Edit(f.owner, id, "fixed"))

	// empty body deletes
	require.NoError(t, f.svc.Edit(f.carol, id, ""))
	_, err = f.st.Message(id)
	require.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestEditOutsideConversationReadsAsMissing(t *testing.T) {
	f := setup(t)
	_, ref := f.channel(t, "general", f.bob)
	id, err := f.svc.Send(f.bob, ref, "secret")
	require.NoError(t, err)

	err = f.svc.Edit(f.carol, id, "defaced")
	require.True(t, apperr.IsKind(err, apperr.KindNotFound))
	err = f.svc.Remove(f.carol, id)
	require.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestRemove(t *testing.T) {
	f := setup(t)
	_, ref := f.channel(t, "general", f.bob, f.carol)
	id, err := f.svc.Send(f.carol, ref, "delete me")
	require.NoError(t, err)

	dmID, err := f.svc.CreateDm(f.bob, []int64{f.carol})
	require.NoError(t, err)
	dmMsg, err := f.svc.Send(f.carol, models.DmRef(dmID), "dm line")
	require.NoError(t, err)

	require.NoError(t, f.svc.Remove(f.bob, id)) // channel owner

	// dm creator may remove, but a global owner member may not
	require.NoError(t, f.svc.Remove(f.bob, dmMsg))
}

func TestGlobalOwnerCannotModerateDms(t *testing.T) {
	f := setup(t)
	dmID, err := f.svc.CreateDm(f.bob, []int64{f.owner})
	require.NoError(t, err)
	id, err := f.svc.Send(f.bob, models.DmRef(dmID), "mine")
	require.NoError(t, err)

	err = f.svc.Remove(f.owner, id)
	require.True(t, apperr.IsKind(err, apperr.KindPermission))
	err = f.svc.Edit(f.owner, id, "not yours")
	require.True(t, apperr.IsKind(err, apperr.KindPermission))
}

func TestMessagesPagination(t *testing.T) {
	f := setup(t)
	_, ref := f.channel(t, "general", f.bob)
	for i := 0; i < 55; i++ {
		_, err := f.svc.Send(f.bob, ref, fmt.Sprintf("msg %02d", i))
		require.NoError(t, err)
	}

	_, err := f.svc.Messages(f.carol, ref, 0)
	require.True(t, apperr.IsKind(err, apperr.KindPermission))

	page, err := f.svc.Messages(f.bob, ref, 0)
	require.NoError(t, err)
	require.Len(t, page.Messages, 50)
	require.Equal(t, int64(0), page.Start)
	require.Equal(t, int64(50), page.End)
	require.Equal(t, "msg 54", page.Messages[0].Message) // newest first

	page, err = f.svc.Messages(f.bob, ref, 50)
	require.NoError(t, err)
	require.Len(t, page.Messages, 5)
	require.Equal(t, int64(-1), page.End)
	require.Equal(t, "msg 00", page.Messages[4].Message)

	// start == total yields an empty final page
	page, err = f.svc.Messages(f.bob, ref, 55)
	require.NoError(t, err)
	require.Empty(t, page.Messages)
	require.Equal(t, int64(-1), page.End)

	_, err = f.svc.Messages(f.bob, ref, 56)
	require.True(t, apperr.IsKind(err, apperr.KindValidation))

	// a negative start is rejected, never sliced
	_, err = f.svc.Messages(f.bob, ref, -1)
	require.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestShareCombinesBodies(t *testing.T) {
	f := setup(t)
	_, src := f.channel(t, "source", f.bob, f.carol)
	_, dst := f.channel(t, "target", f.bob, f.carol)
	ogID, err := f.svc.Send(f.bob, src, "look at this")
	require.NoError(t, err)

	id, err := f.svc.Share(f.carol, ogID, "seconded @bob", dst)
	require.NoError(t, err)
	m, err := f.st.Message(id)
	require.NoError(t, err)
	require.Equal(t, "look at this seconded @bob", m.Body)

	e := notify.NewEngine(f.st)
	feed, err := e.Feed(f.bob)
	require.NoError(t, err)
	require.Len(t, feed, 1)
	require.Equal(t, "carol tagged you in target: shared: look at this", feed[0].Text)

	// no extra keeps the original body untouched
	id2, err := f.svc.Share(f.carol, ogID, "", dst)
	require.NoError(t, err)
	m2, err := f.st.Message(id2)
	require.NoError(t, err)
	require.Equal(t, "look at this", m2.Body)
}

func TestShareRequiresBothSides(t *testing.T) {
	f := setup(t)
	_, src := f.channel(t, "source", f.bob)
	_, dst := f.channel(t, "target", f.carol)
	ogID, err := f.svc.Send(f.bob, src, "private")
	require.NoError(t, err)

	// caller not in the target
	_, err = f.svc.Share(f.bob, ogID, "", dst)
	require.True(t, apperr.IsKind(err, apperr.KindPermission))

	// caller cannot see the original
	_, err = f.svc.Share(f.carol, ogID, "", dst)
	require.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestSearchScopedAndCaseInsensitive(t *testing.T) {
	f := setup(t)
	_, mine := f.channel(t, "mine", f.bob)
	_, theirs := f.channel(t, "theirs", f.carol)
	dmID, err := f.svc.CreateDm(f.bob, []int64{f.owner})
	require.NoError(t, err)

	_, err = f.svc.Send(f.bob, mine, "Deploy FRIDAY morning")
	require.NoError(t, err)
	_, err = f.svc.Send(f.bob, models.DmRef(dmID), "friday works for me")
	require.NoError(t, err)
	_, err = f.svc.Send(f.carol, theirs, "friday is off limits")
	require.NoError(t, err)

	hits, err := f.svc.Search(f.bob, "fRiDaY")
	require.NoError(t, err)
	require.Len(t, hits, 2) // the unjoined channel never surfaces
	require.Equal(t, "friday works for me", hits[0].Message)
	require.Equal(t, "Deploy FRIDAY morning", hits[1].Message)

	_, err = f.svc.Search(f.bob, "")
	require.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestSendLater(t *testing.T) {
	f := setup(t)
	chID, ref := f.channel(t, "general", f.bob)

	_, err := f.svc.SendLater(f.bob, 999, "hi", time.Now().Unix()+60)
	require.True(t, apperr.IsKind(err, apperr.KindNotFound))
	_, err = f.svc.SendLater(f.bob, chID, "hi", time.Now().Unix()-60)
	require.True(t, apperr.IsKind(err, apperr.KindValidation))
	_, err = f.svc.SendLater(f.carol, chID, "hi", time.Now().Unix()+60)
	require.True(t, apperr.IsKind(err, apperr.KindPermission))

	id, err := f.svc.SendLater(f.bob, chID, "from the past", time.Now().Unix()+1)
	require.NoError(t, err)

	// a message sent after the reservation takes a later id
	laterID, err := f.svc.Send(f.bob, ref, "beat you to it")
	require.NoError(t, err)
	require.Greater(t, laterID, id)

	require.Eventually(t, func() bool {
		_, err := f.st.Message(id)
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)

	page, err := f.svc.Messages(f.bob, ref, 0)
	require.NoError(t, err)
	require.Len(t, page.Messages, 2)
	// id order slots the deferred message before the live one
	require.Equal(t, "beat you to it", page.Messages[0].Message)
	require.Equal(t, "from the past", page.Messages[1].Message)
}
