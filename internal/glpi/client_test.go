package glpi_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"label-intake-api/internal/apperr"
	"label-intake-api/internal/glpi"
	"label-intake-api/internal/models"
	"label-intake-api/internal/testutil"
)

func newClient(t *testing.T, fake *testutil.FakeGLPI) *glpi.Client {
	t.Helper()
	client, err := glpi.NewClient(glpi.Config{
		BaseURL:   fake.URL() + "/",
		AppToken:  testutil.AppToken,
		UserToken: testutil.UserToken,
	})
	require.NoError(t, err)
	return client
}

func open(t *testing.T, client *glpi.Client) *glpi.Session {
	t.Helper()
	s, err := client.Open(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s
}

func TestNewClient(t *testing.T) {
	tests := []struct {
		name       string
		cfg        glpi.Config
		configured bool
		wantErr    bool
	}{
		{"complete", glpi.Config{BaseURL: "http://glpi/apirest.php", AppToken: "a", UserToken: "u"}, true, false},
		{"missing url", glpi.Config{AppToken: "a", UserToken: "u"}, false, false},
		{"blank token", glpi.Config{BaseURL: "http://glpi", AppToken: "  ", UserToken: "u"}, false, false},
		{"serial as secondary", glpi.Config{BaseURL: "http://glpi", SecondaryField: "serial"}, false, false},
		{"unsearchable secondary", glpi.Config{SecondaryField: "asset_tag"}, false, true},
		{"id as secondary", glpi.Config{SecondaryField: "id"}, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := glpi.NewClient(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.configured, client.Configured())
		})
	}
}

func TestOpen_NotConfigured(t *testing.T) {
	client, err := glpi.NewClient(glpi.Config{})
	require.NoError(t, err)

	_, err = client.Open(context.Background())
	assert.ErrorIs(t, err, apperr.ErrConfiguration)
}

func TestOpen_BadCredentials(t *testing.T) {
	fake := testutil.NewFakeGLPI(t)
	client, err := glpi.NewClient(glpi.Config{BaseURL: fake.URL(), AppToken: testutil.AppToken, UserToken: "wrong"})
	require.NoError(t, err)

	_, err = client.Open(context.Background())
	assert.ErrorIs(t, err, apperr.ErrUpstream)
	assert.Contains(t, err.Error(), "401")
	assert.Equal(t, 0, fake.OpenSessions())
}

func TestSession_OpenClose(t *testing.T) {
	fake := testutil.NewFakeGLPI(t)
	client := newClient(t, fake)

	s, err := client.Open(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, fake.OpenSessions())

	require.NoError(t, s.Close(context.Background()))
	assert.Equal(t, 0, fake.OpenSessions())

	// second close is a no-op
	require.NoError(t, s.Close(context.Background()))
	assert.Equal(t, 1, fake.Calls("killSession"))

	_, err = s.Search(context.Background(), "Computer", models.SearchBySerial, "X")
	assert.ErrorIs(t, err, apperr.ErrUpstream)
}

func TestSession_CloseAfterCancel(t *testing.T) {
	fake := testutil.NewFakeGLPI(t)
	client := newClient(t, fake)

	s, err := client.Open(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, s.Close(ctx))
	assert.Equal(t, 0, fake.OpenSessions())
}

func TestSession_Search(t *testing.T) {
	fake := testutil.NewFakeGLPI(t)
	first := fake.Seed("Computer", map[string]any{"name": "Dell 7440", "serial": "ABC123"})
	second := fake.Seed("Computer", map[string]any{"name": "Dell 7440", "serial": "abc123"})
	fake.Seed("Computer", map[string]any{"name": "Other", "serial": "ABC1234"})
	tagged := fake.Seed("Computer", map[string]any{"name": "Tagged", "otherserial": "INV-9"})

	s := open(t, newClient(t, fake))

	t.Run("serial is case insensitive and exact", func(t *testing.T) {
		got, err := s.Search(context.Background(), "Computer", models.SearchBySerial, "  Abc123 ")
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, first, got[0].ID)
		assert.Equal(t, second, got[1].ID)
		assert.Equal(t, "Computer", got[0].EntityType)
	})

	t.Run("secondary identifier", func(t *testing.T) {
		got, err := s.Search(context.Background(), "Computer", models.SearchBySecondaryID, "inv-9")
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, tagged, got[0].ID)
		assert.Equal(t, "INV-9", got[0].SecondaryID)
	})

	t.Run("no match", func(t *testing.T) {
		got, err := s.Search(context.Background(), "Computer", models.SearchBySerial, "NOPE")
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("other item type", func(t *testing.T) {
		got, err := s.Search(context.Background(), "Monitor", models.SearchBySerial, "ABC123")
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("blank value skips the request", func(t *testing.T) {
		before := fake.Calls("search")
		got, err := s.Search(context.Background(), "Computer", models.SearchBySerial, "   ")
		require.NoError(t, err)
		assert.Empty(t, got)
		assert.Equal(t, before, fake.Calls("search"))
	})
}

func TestSession_FetchCreateUpdate(t *testing.T) {
	fake := testutil.NewFakeGLPI(t)
	s := open(t, newClient(t, fake))
	ctx := context.Background()

	name := "Latitude 7440"
	serial := "SN-1"
	comment := "Part number: PN-9"
	id, err := s.Create(ctx, "Computer", models.AssetChanges{Name: &name, Serial: &serial, Comment: &comment})
	require.NoError(t, err)
	assert.Positive(t, id)

	rec, err := s.Fetch(ctx, "Computer", id)
	require.NoError(t, err)
	assert.Equal(t, id, rec.ID)
	assert.Equal(t, "Latitude 7440", rec.Model)
	assert.Equal(t, "SN-1", rec.Serial)
	assert.Equal(t, "Part number: PN-9", rec.Comment)

	location := 12
	require.NoError(t, s.Update(ctx, "Computer", id, models.AssetChanges{LocationID: &location}))
	stored := fake.Item("Computer", id)
	assert.EqualValues(t, 12, stored["locations_id"])
	assert.Equal(t, "SN-1", stored["serial"])

	_, err = s.Fetch(ctx, "Computer", 99999)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	err = s.Update(ctx, "Computer", 99999, models.AssetChanges{LocationID: &location})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestSession_SecondaryFieldMapping(t *testing.T) {
	fake := testutil.NewFakeGLPI(t)
	client, err := glpi.NewClient(glpi.Config{
		BaseURL:        fake.URL(),
		AppToken:       testutil.AppToken,
		UserToken:      testutil.UserToken,
		SecondaryField: "name",
	})
	require.NoError(t, err)
	s := open(t, client)

	token := "QR-77"
	id, err := s.Create(context.Background(), "Computer", models.AssetChanges{SecondaryID: &token})
	require.NoError(t, err)
	assert.Equal(t, "QR-77", fake.Item("Computer", id)["name"])

	got, err := s.Search(context.Background(), "Computer", models.SearchBySecondaryID, "qr-77")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, id, got[0].ID)
}

func TestSession_UpstreamFailures(t *testing.T) {
	tests := []struct {
		op  string
		run func(s *glpi.Session) error
	}{
		{"search", func(s *glpi.Session) error {
			_, err := s.Search(context.Background(), "Computer", models.SearchBySerial, "X")
			return err
		}},
		{"fetch", func(s *glpi.Session) error {
			_, err := s.Fetch(context.Background(), "Computer", 1)
			return err
		}},
		{"create", func(s *glpi.Session) error {
			_, err := s.Create(context.Background(), "Computer", models.AssetChanges{})
			return err
		}},
		{"update", func(s *glpi.Session) error {
			return s.Update(context.Background(), "Computer", 1, models.AssetChanges{})
		}},
	}

	for _, tt := range tests {
		t.Run(tt.op, func(t *testing.T) {
			fake := testutil.NewFakeGLPI(t)
			fake.FailOn(tt.op, http.StatusInternalServerError)
			s := open(t, newClient(t, fake))

			err := tt.run(s)
			require.Error(t, err)
			assert.ErrorIs(t, err, apperr.ErrUpstream)
			assert.Contains(t, err.Error(), "injected "+tt.op+" failure")
		})
	}
}
