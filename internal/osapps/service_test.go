package osapps

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/varoOP/playshelf/internal/domain"
	"github.com/varoOP/playshelf/internal/repository"
)

type stubEnumerator struct {
	out []byte
	err error
}

func (s stubEnumerator) Enumerate(ctx context.Context) ([]byte, error) {
	return s.out, s.err
}

func newService(t *testing.T, enum Enumerator) (Service, *repository.AssetStore) {
	t.Helper()
	assets := repository.NewAssetStore(zerolog.Nop(), t.TempDir())
	heuristics := &domain.Heuristics{UtilityKeywords: []string{"redistributable"}}
	return NewService(zerolog.Nop(), enum, heuristics, assets), assets
}

func TestScan(t *testing.T) {
	logo := filepath.Join(t.TempDir(), "gimp.ico")
	require.NoError(t, os.WriteFile(logo, []byte("ico"), 0644))

	entries := []map[string]string{
		{"id": "GIMP-2_is1", "title": "GIMP 2.10", "execPath": `C:\Program Files\GIMP 2\bin\gimp-2.10.exe`, "logoPath": logo, "installDate": "20230115"},
		{"id": "{1D8E6291-B0D5-35EC-8441-6616F567A0F7}", "title": "Microsoft Visual C++ 2010 x64 Redistributable", "execPath": `C:\x.exe`},
		{"id": "", "title": "No Id", "execPath": `C:\y.exe`},
		{"id": "Notepad++", "title": "Notepad++", "execPath": `C:\Program Files\Notepad++\notepad++.exe`, "logoPath": `C:\missing.ico`},
	}
	raw, err := json.Marshal(entries)
	require.NoError(t, err)

	svc, assets := newService(t, stubEnumerator{out: raw})

	items, err := svc.Scan(context.Background(), domain.ScanOptions{})
	require.NoError(t, err)
	require.Len(t, items, 2)

	gimp := items[0]
	assert.Equal(t, "app_gimp-2-is1", gimp.ID)
	assert.Equal(t, "GIMP 2.10", gimp.Title)
	assert.Equal(t, domain.OriginApps, gimp.Origin)
	assert.Equal(t, assets.Path(gimp.ID, ShortcutName), gimp.Target)
	assert.Equal(t, assets.Path(gimp.ID, "logo.ico"), gimp.Logo)
	assert.Equal(t, time.Date(2023, 1, 15, 0, 0, 0, 0, time.UTC), gimp.InstalledAt)

	shortcut, err := os.ReadFile(gimp.Target)
	require.NoError(t, err)
	assert.Contains(t, string(shortcut), "[InternetShortcut]")
	assert.Contains(t, string(shortcut), "URL=file:///C:/Program%20Files/GIMP%202/bin/gimp-2.10.exe")

	notepad := items[1]
	assert.Equal(t, "app_notepad", notepad.ID)
	assert.Empty(t, notepad.Logo)

	// a rescan overwrites the shortcut in place
	items, err = svc.Scan(context.Background(), domain.ScanOptions{IncludeSoftware: true})
	require.NoError(t, err)
	assert.Len(t, items, 3)
}

func TestScan_SingleObject(t *testing.T) {
	svc, _ := newService(t, stubEnumerator{out: []byte(`{"id":"vlc","title":"VLC media player","execPath":"C:\\vlc.exe"}`)})

	items, err := svc.Scan(context.Background(), domain.ScanOptions{})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "app_vlc", items[0].ID)
}

func TestScan_NeverFails(t *testing.T) {
	cases := map[string]Enumerator{
		"error":     stubEnumerator{err: errors.New("powershell missing")},
		"empty":     stubEnumerator{},
		"malformed": stubEnumerator{out: []byte(`[{"id": "x",`)},
		"wrong":     stubEnumerator{out: []byte(`"text"`)},
	}

	for name, enum := range cases {
		t.Run(name, func(t *testing.T) {
			svc, _ := newService(t, enum)
			items, err := svc.Scan(context.Background(), domain.ScanOptions{})
			require.NoError(t, err)
			assert.NotNil(t, items)
			assert.Empty(t, items)
		})
	}
}

func TestScan_IncompleteEntries(t *testing.T) {
	raw := []byte(`[
		{"id": "untitled", "title": "  ", "execPath": "C:\\a.exe"},
		{"id": "nopath", "title": "No Path"},
		{"id": "ok", "title": "Paint.NET", "execPath": "C:\\paint.exe"}
	]`)
	svc, _ := newService(t, stubEnumerator{out: raw})

	items, err := svc.Scan(context.Background(), domain.ScanOptions{IncludeSoftware: true})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "app_ok", items[0].ID)
}

func TestShortcutFor(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{`C:\Program Files\GIMP 2\bin\gimp-2.10.exe`, "URL=file:///C:/Program%20Files/GIMP%202/bin/gimp-2.10.exe\r\n"},
		{`D:\Games\doom.exe`, "URL=file:///D:/Games/doom.exe\r\n"},
		{"/opt/app/run", "URL=file:///opt/app/run\r\n"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got := string(shortcutFor(tt.path))
			assert.True(t, strings.HasPrefix(got, "[InternetShortcut]\r\n"))
			assert.Contains(t, got, tt.want)
			assert.NotContains(t, got, "%5C")
		})
	}
}

func TestParseInstallDate(t *testing.T) {
	assert.Equal(t, time.Date(2021, 7, 4, 0, 0, 0, 0, time.UTC), parseInstallDate("20210704"))
	assert.Equal(t, time.Unix(1700000000, 0).UTC(), parseInstallDate("1700000000"))
	assert.True(t, parseInstallDate("yesterday").IsZero())
	assert.True(t, parseInstallDate("").IsZero())
}
