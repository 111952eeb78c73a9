package relations

import (
	"testing"

	"github.com/Daskott/lifeline/server/models"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

type roles struct {
	IsResponder bool
	IsDependent bool
}

// assertSymmetric checks every entry has a reciprocal with the roles swapped
func assertSymmetric(t *testing.T, env *testEnv, ids ...string) {
	t.Helper()

	for _, id := range ids {
		user := env.user(t, id)
		for _, entry := range user.Contacts {
			other := env.user(t, entry.Ref.UserID())
			reciprocal := other.Contact(models.RefForUser(id))
			require.NotNil(t, reciprocal, "%v has no entry for %v", other.ID, id)

			want := roles{IsResponder: entry.IsDependent, IsDependent: entry.IsResponder}
			got := roles{IsResponder: reciprocal.IsResponder, IsDependent: reciprocal.IsDependent}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("%v <-> %v roles not mirrored (-want +got):\n%s", id, other.ID, diff)
			}
		}
	}
}

func TestRelationSymmetry(t *testing.T) {
	env := newTestEnv(avengers()...)
	ids := []string{"tony", "peter", "strange"}

	env.link(t, "tony", "peter", true, false)
	assertSymmetric(t, env, ids...)

	env.link(t, "strange", "tony", true, true)
	assertSymmetric(t, env, ids...)

	require.Nil(t, env.manager.UpdateRoles(env.ctx, "users/peter", "users/tony", boolPtr(true), boolPtr(true)))
	assertSymmetric(t, env, ids...)

	require.Nil(t, env.manager.UpdatePreferences(env.ctx, "users/tony", "users/strange", PreferenceUpdate{ReceivePings: boolPtr(false)}, true))
	assertSymmetric(t, env, ids...)

	require.Nil(t, env.manager.RemoveRelation(env.ctx, "users/tony", "users/peter"))
	assertSymmetric(t, env, ids...)

	// Failed operations leave the graph untouched
	env.discovery.Put("strange-token", "strange")
	_, err := env.manager.AddRelation(env.ctx, "tony", "strange-token", false, false)
	require.NotNil(t, err)
	assertSymmetric(t, env, ids...)
}
