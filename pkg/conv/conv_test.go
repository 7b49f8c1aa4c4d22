package conv

import (
	"testing"

	"github.com/stretchr/testify/require"

	"teamline/pkg/apperr"
	"teamline/pkg/models"
	"teamline/pkg/notify"
	"teamline/pkg/sched"
	"teamline/pkg/store"
)

type fixture struct {
	st    *store.Store
	svc   *Service
	owner int64 // first user, global owner
	bob   int64
	carol int64
}

func setup(t *testing.T) fixture {
	t.Helper()
	st, err := store.Open(store.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	timer := sched.New()
	t.Cleanup(timer.Stop)

	addUser := func(handle string, perm int64) int64 {
		uid, err := st.CreateUser(models.User{
			Email: handle + "@x.com", NameFirst: handle, NameLast: "t",
			Handle: handle, Permission: perm,
		})
		require.NoError(t, err)
		return uid
	}
	f := fixture{st: st}
	f.owner = addUser("owner", models.PermOwner)
	f.bob = addUser("bob", models.PermMember)
	f.carol = addUser("carol", models.PermMember)
	f.svc = NewService(st, notify.NewEngine(st), timer)
	return f
}

func TestCreateChannelAndListing(t *testing.T) {
	f := setup(t)

	_, err := f.svc.CreateChannel(f.bob, "", true)
	require.True(t, apperr.IsKind(err, apperr.KindValidation))

	pub, err := f.svc.CreateChannel(f.bob, "general", true)
	require.NoError(t, err)
	priv, err := f.svc.CreateChannel(f.carol, "secret", false)
	require.NoError(t, err)

	mine, err := f.svc.ChannelsFor(f.bob)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	require.Equal(t, pub, mine[0].ID)

	all, err := f.svc.AllChannels()
	require.NoError(t, err)
	require.Len(t, all, 2)

	ch, err := f.svc.ChannelDetails(f.bob, pub)
	require.NoError(t, err)
	require.Equal(t, []int64{f.bob}, ch.Owners)

	_, err = f.svc.ChannelDetails(f.bob, priv)
	require.True(t, apperr.IsKind(err, apperr.KindPermission))
}

func TestJoinPublicPrivateAndGlobalOwner(t *testing.T) {
	f := setup(t)
	pub, err := f.svc.CreateChannel(f.bob, "general", true)
	require.NoError(t, err)
	priv, err := f.svc.CreateChannel(f.bob, "secret", false)
	require.NoError(t, err)

	require.NoError(t, f.svc.Join(f.carol, pub))
	err = f.svc.Join(f.carol, pub)
	require.True(t, apperr.IsKind(err, apperr.KindValidation)) // already in

	err = f.svc.Join(f.carol, priv)
	require.True(t, apperr.IsKind(err, apperr.KindPermission))

	// global owners walk through private doors
	require.NoError(t, f.svc.Join(f.owner, priv))

	err = f.svc.Join(f.carol, 999)
	require.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestInviteNotifiesTarget(t *testing.T) {
	f := setup(t)
	chID, err := f.svc.CreateChannel(f.bob, "general", false)
	require.NoError(t, err)

	err = f.svc.Invite(f.carol, chID, f.bob)
	require.True(t, apperr.IsKind(err, apperr.KindPermission)) // non-member inviter

	err = f.svc.Invite(f.bob, chID, 999)
	require.True(t, apperr.IsKind(err, apperr.KindValidation))

	require.NoError(t, f.svc.Invite(f.bob, chID, f.carol))
	err = f.svc.Invite(f.bob, chID, f.carol)
	require.True(t, apperr.IsKind(err, apperr.KindValidation))

	e := notify.NewEngine(f.st)
	feed, err := e.Feed(f.carol)
	require.NoError(t, err)
	require.Len(t, feed, 1)
	require.Equal(t, "bob added you to general", feed[0].Text)
}

func TestLeaveStripsOwnership(t *testing.T) {
	f := setup(t)
	chID, err := f.svc.CreateChannel(f.bob, "general", true)
	require.NoError(t, err)
	require.NoError(t, f.svc.Join(f.carol, chID))

	require.NoError(t, f.svc.Leave(f.bob, chID))
	ch, err := f.st.Channel(chID)
	require.NoError(t, err)
	require.Equal(t, []int64{f.carol}, ch.Members)
	require.Empty(t, ch.Owners) // an ownerless channel survives

	err = f.svc.Leave(f.bob, chID)
	require.True(t, apperr.IsKind(err, apperr.KindPermission))
}

func TestOwnerPromotionAndDemotion(t *testing.T) {
	f := setup(t)
	chID, err := f.svc.CreateChannel(f.bob, "general", true)
	require.NoError(t, err)
	require.NoError(t, f.svc.Join(f.carol, chID))

	err = f.svc.AddOwner(f.carol, chID, f.carol)
	require.True(t, apperr.IsKind(err, apperr.KindPermission))

	err = f.svc.AddOwner(f.bob, chID, 999)
	require.True(t, apperr.IsKind(err, apperr.KindValidation)) // target not a member

	require.NoError(t, f.svc.AddOwner(f.bob, chID, f.carol))
	err = f.svc.AddOwner(f.bob, chID, f.carol)
	require.True(t, apperr.IsKind(err, apperr.KindValidation))

	require.NoError(t, f.svc.RemoveOwner(f.carol, chID, f.bob))
	// last owner cannot be demoted
	err = f.svc.RemoveOwner(f.carol, chID, f.carol)
	require.True(t, apperr.IsKind(err, apperr.KindValidation))

	// a global owner who is a member holds owner permission too
	require.NoError(t, f.svc.Join(f.owner, chID))
	require.NoError(t, f.svc.AddOwner(f.owner, chID, f.owner))
}

func TestCreateDm(t *testing.T) {
	f := setup(t)

	_, err := f.svc.CreateDm(f.bob, []int64{f.carol, f.carol})
	require.True(t, apperr.IsKind(err, apperr.KindValidation))
	_, err = f.svc.CreateDm(f.bob, []int64{999})
	require.True(t, apperr.IsKind(err, apperr.KindValidation))
	_, err = f.svc.CreateDm(f.bob, []int64{f.bob})
	require.True(t, apperr.IsKind(err, apperr.KindValidation)) // caller listed twice

	dmID, err := f.svc.CreateDm(f.carol, []int64{f.bob})
	require.NoError(t, err)
	dm, err := f.st.Dm(dmID)
	require.NoError(t, err)
	require.Equal(t, "bob, carol", dm.Name) // handles sorted, not join order
	require.Equal(t, f.carol, dm.Creator)

	e := notify.NewEngine(f.st)
	feed, err := e.Feed(f.bob)
	require.NoError(t, err)
	require.Len(t, feed, 1)
	require.Equal(t, "carol added you to bob, carol", feed[0].Text)

	dms, err := f.svc.DmsFor(f.bob)
	require.NoError(t, err)
	require.Len(t, dms, 1)
}

func TestDmLeaveAndRemove(t *testing.T) {
	f := setup(t)
	dmID, err := f.svc.CreateDm(f.bob, []int64{f.carol})
	require.NoError(t, err)

	err = f.svc.DmRemove(f.carol, dmID)
	require.True(t, apperr.IsKind(err, apperr.KindPermission)) // not the creator

	// a creator who left loses the right to remove
	require.NoError(t, f.svc.DmLeave(f.bob, dmID))
	err = f.svc.DmRemove(f.bob, dmID)
	require.True(t, apperr.IsKind(err, apperr.KindPermission))

	dm, err := f.svc.DmDetails(f.carol, dmID)
	require.NoError(t, err)
	require.Equal(t, []int64{f.carol}, dm.Members)
	_, err = f.svc.DmDetails(f.bob, dmID)
	require.True(t, apperr.IsKind(err, apperr.KindPermission))

	dmID2, err := f.svc.CreateDm(f.bob, []int64{f.carol})
	require.NoError(t, err)
	require.NoError(t, f.svc.DmRemove(f.bob, dmID2))
	_, err = f.st.Dm(dmID2)
	require.True(t, apperr.IsKind(err, apperr.KindNotFound))
}
