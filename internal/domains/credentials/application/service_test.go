package application

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	credcrypto "github.com/Apurer/storelink-fic-sync/internal/domains/credentials/adapters/crypto"
	credmemory "github.com/Apurer/storelink-fic-sync/internal/domains/credentials/adapters/memory"
	"github.com/Apurer/storelink-fic-sync/internal/domains/credentials/domain"
	"github.com/Apurer/storelink-fic-sync/internal/shared/errkind"
)

var validKey = strings.Repeat("aB3x", 8)

func newTestService(t *testing.T) (*Service, *Vault, *credmemory.SecretStore) {
	t.Helper()
	cipher, err := credcrypto.NewAESGCM("install-test", credcrypto.DefaultSalt)
	require.NoError(t, err)
	store := credmemory.NewSecretStore()
	vault := NewVault(store, cipher)
	return NewService(vault), vault, store
}

type stubTester struct{ err error }

func (s stubTester) TestConnection(context.Context) error { return s.err }

func TestVault_SaveGetDelete(t *testing.T) {
	_, vault, store := newTestService(t)
	ctx := context.Background()

	require.NoError(t, vault.Save(ctx, "K", "v"))
	require.NotEqual(t, "v", store.Raw("K"))

	value, found, err := vault.Get(ctx, "K")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "v", value)

	require.NoError(t, vault.Delete(ctx, "K"))
	value, found, err = vault.Get(ctx, "K")
	require.NoError(t, err)
	require.False(t, found)
	require.Empty(t, value)

	require.NoError(t, vault.Delete(ctx, "never-saved"))
}

func TestSaveCredentials_TrimsAndStoresSealed(t *testing.T) {
	svc, _, store := newTestService(t)
	ctx := context.Background()

	status, err := svc.SaveCredentials(ctx, " "+validKey+"\n", "\t4242 ")
	require.NoError(t, err)
	require.True(t, status.Configured)
	require.Equal(t, int64(4242), status.CompanyID)
	require.Equal(t, "aB3x...aB3x", status.MaskedKey)
	require.NotContains(t, store.Raw(domain.KeyAPIKey), validKey)

	cred, err := svc.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, validKey, cred.APIKey)
	require.Equal(t, int64(4242), cred.CompanyID)
}

func TestSaveCredentials_RejectsUnsafeCharacters(t *testing.T) {
	cases := map[string]struct {
		apiKey    string
		companyID string
	}{
		"trailing semicolon": {apiKey: validKey + ";", companyID: "4242"},
		"quoted key":         {apiKey: `"` + validKey + `"`, companyID: "4242"},
		"embedded markup":    {apiKey: validKey[:16] + "<>" + validKey[16:], companyID: "4242"},
		"quoted company id":  {apiKey: validKey, companyID: `"4242"`},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			svc, _, store := newTestService(t)
			ctx := context.Background()

			_, err := svc.SaveCredentials(ctx, tc.apiKey, tc.companyID)
			require.ErrorIs(t, err, ErrInvalidInput)
			require.True(t, errkind.Is(err, errkind.Validation))
			require.Empty(t, store.Raw(domain.KeyAPIKey))
		})
	}
}

func TestSaveCredentials_RejectsInvalidInput(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.SaveCredentials(ctx, "short", "1")
	require.ErrorIs(t, err, ErrInvalidInput)
	require.True(t, errkind.Is(err, errkind.Validation))

	_, err = svc.SaveCredentials(ctx, validKey, "zero")
	require.ErrorIs(t, err, domain.ErrInvalidCompanyID)
}

func TestLoad_MissingCredentials(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Load(context.Background())
	require.ErrorIs(t, err, ErrNotConfigured)
	require.True(t, errkind.Is(err, errkind.Validation))
}

func TestValidateConfig_ReportsEveryProblem(t *testing.T) {
	svc, vault, _ := newTestService(t)
	ctx := context.Background()

	require.Len(t, svc.ValidateConfig(ctx), 2)

	require.NoError(t, vault.Save(ctx, domain.KeyAPIKey, validKey))
	problems := svc.ValidateConfig(ctx)
	require.Len(t, problems, 1)
	require.Contains(t, problems[0], "company id")

	status := svc.Status(ctx)
	require.False(t, status.Configured)
}

func TestRevoke(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	_, err := svc.SaveCredentials(ctx, validKey, "7")
	require.NoError(t, err)
	require.True(t, svc.Status(ctx).Configured)

	require.NoError(t, svc.Revoke(ctx))
	require.False(t, svc.Status(ctx).Configured)
}

func TestSaveAndTest_KeepsCredentialsWhenProbeFails(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	probeErr := errors.New("401")
	_, err := svc.SaveAndTest(ctx, validKey, "7", stubTester{err: probeErr})
	require.ErrorIs(t, err, probeErr)
	require.True(t, svc.Status(ctx).Configured)

	status, err := svc.SaveAndTest(ctx, validKey, "8", stubTester{})
	require.NoError(t, err)
	require.Equal(t, int64(8), status.CompanyID)
}
