package queue_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"reelpost/internal/queue"
	"reelpost/internal/testsupport"
)

func TestAddEpisodeAndLookup(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	episode, err := store.AddEpisode(ctx, queue.NewEpisode{
		SeriesKey:      "show",
		SequenceNumber: 3,
		SourceURL:      "https://media.example/watch/3",
		Metadata:       map[string]string{"title": "Pilot"},
	})
	if err != nil {
		t.Fatalf("AddEpisode failed: %v", err)
	}
	if episode.ID == 0 || episode.Processed {
		t.Fatalf("unexpected episode: %#v", episode)
	}
	if episode.Label() != "show_E3" {
		t.Fatalf("unexpected label %q", episode.Label())
	}
	if episode.Metadata["title"] != "Pilot" {
		t.Fatalf("expected metadata round trip, got %#v", episode.Metadata)
	}

	found, err := store.FindEpisode(ctx, "show", 3)
	if err != nil {
		t.Fatalf("FindEpisode failed: %v", err)
	}
	if found == nil || found.ID != episode.ID {
		t.Fatalf("expected to find inserted episode, got %#v", found)
	}

	missing, err := store.GetEpisode(ctx, episode.ID+100)
	if err != nil {
		t.Fatalf("GetEpisode failed: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for missing episode, got %#v", missing)
	}
}

func TestAddEpisodeRejectsDuplicate(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	testsupport.NewEpisode(t, store, "show", 1, "https://media.example/1")
	_, err := store.AddEpisode(context.Background(), queue.NewEpisode{
		SeriesKey:      "show",
		SequenceNumber: 1,
		SourceURL:      "https://media.example/other",
	})
	if !errors.Is(err, queue.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestAddEpisodeValidatesInput(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	cases := []queue.NewEpisode{
		{SeriesKey: "", SequenceNumber: 1, SourceURL: "https://x"},
		{SeriesKey: "show", SequenceNumber: -1, SourceURL: "https://x"},
		{SeriesKey: "show", SequenceNumber: 1, SourceURL: " "},
		{Kind: queue.KindUpload, SeriesKey: "Movie", SequenceNumber: 2, SourceURL: "https://x"},
		{Kind: "playlist", SeriesKey: "show", SequenceNumber: 1, SourceURL: "https://x"},
	}
	for _, tc := range cases {
		if _, err := store.AddEpisode(ctx, tc); err == nil {
			t.Fatalf("expected error for %#v", tc)
		}
	}
}

func TestAddEpisodeStoresOverridesAndKind(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	upload, err := store.AddEpisode(ctx, queue.NewEpisode{
		Kind:           queue.KindUpload,
		SeriesKey:      "Trailer",
		SourceURL:      "https://media.example/trailer.mp4",
		PublishChannel: " -100777 ",
		StorageBackend: "Local",
	})
	if err != nil {
		t.Fatalf("AddEpisode: %v", err)
	}
	fetched, err := store.GetEpisode(ctx, upload.ID)
	if err != nil {
		t.Fatal(err)
	}
	if fetched.Kind != queue.KindUpload || fetched.Label() != "Trailer" {
		t.Fatalf("unexpected upload %+v (label %q)", fetched, fetched.Label())
	}
	if fetched.PublishChannel != "-100777" || fetched.StorageBackend != "local" {
		t.Fatalf("overrides not normalized: channel=%q backend=%q", fetched.PublishChannel, fetched.StorageBackend)
	}

	plain := testsupport.NewEpisode(t, store, "show", 1, "https://media.example/1")
	if plain.Kind != queue.KindEpisode || plain.PublishChannel != "" || plain.StorageBackend != "" {
		t.Fatalf("episode defaults wrong: %+v", plain)
	}
}

func TestOpenMigratesVersionOneDatabase(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatal(err)
	}
	db, err := sql.Open("sqlite", cfg.DatabasePath())
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	for _, stmt := range []string{
		`CREATE TABLE episodes (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            series_key TEXT NOT NULL,
            sequence_number INTEGER NOT NULL,
            source_url TEXT NOT NULL,
            processed INTEGER NOT NULL DEFAULT 0,
            published_reference TEXT,
            metadata_json TEXT,
            attempts INTEGER NOT NULL DEFAULT 0,
            last_error TEXT,
            claim_owner TEXT,
            claim_expires_at INTEGER,
            created_at TEXT NOT NULL,
            updated_at TEXT NOT NULL,
            processed_at TEXT,
            download_started_at TEXT,
            UNIQUE (series_key, sequence_number))`,
		`INSERT INTO episodes (series_key, sequence_number, source_url, created_at, updated_at)
         VALUES ('show', 1, 'https://media.example/1', '2026-01-01T00:00:00Z', '2026-01-01T00:00:00Z')`,
		`PRAGMA user_version = 1`,
	} {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("seed v1: %v", err)
		}
	}
	db.Close()

	store := testsupport.MustOpenStore(t, cfg)
	existing, err := store.FindEpisode(context.Background(), "show", 1)
	if err != nil || existing == nil {
		t.Fatalf("FindEpisode after migration: %v %v", existing, err)
	}
	if existing.Kind != queue.KindEpisode || existing.StorageBackend != "" {
		t.Fatalf("migrated row has wrong defaults: %+v", existing)
	}
	if _, err := store.AddEpisode(context.Background(), queue.NewEpisode{
		SeriesKey: "show", SequenceNumber: 2, SourceURL: "https://media.example/2", StorageBackend: "local",
	}); err != nil {
		t.Fatalf("AddEpisode after migration: %v", err)
	}
}

func TestClaimIsExclusiveUntilExpiry(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	episode := testsupport.NewEpisode(t, store, "show", 1, "https://media.example/1")

	ok, err := store.Claim(ctx, episode.ID, "pass-a", time.Minute)
	if err != nil || !ok {
		t.Fatalf("first claim: ok=%v err=%v", ok, err)
	}
	ok, err = store.Claim(ctx, episode.ID, "pass-b", time.Minute)
	if err != nil {
		t.Fatalf("second claim: %v", err)
	}
	if ok {
		t.Fatal("expected second owner to be refused while lease is live")
	}

	if err := store.ExtendClaim(ctx, episode.ID, "pass-b", time.Minute); !errors.Is(err, queue.ErrClaimLost) {
		t.Fatalf("expected ErrClaimLost extending foreign claim, got %v", err)
	}
	if err := store.ExtendClaim(ctx, episode.ID, "pass-a", time.Millisecond); err != nil {
		t.Fatalf("ExtendClaim failed: %v", err)
	}
	time.Sleep(10 * time.Millisecond)

	ok, err = store.Claim(ctx, episode.ID, "pass-b", time.Minute)
	if err != nil || !ok {
		t.Fatalf("expected expired lease to be reclaimable: ok=%v err=%v", ok, err)
	}
	fetched, err := store.GetEpisode(ctx, episode.ID)
	if err != nil {
		t.Fatalf("GetEpisode failed: %v", err)
	}
	if fetched.ClaimOwner != "pass-b" || !fetched.Claimed(time.Now()) {
		t.Fatalf("unexpected claim state: %#v", fetched)
	}
}

func TestMarkProcessedRequiresOwner(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	episode := testsupport.NewEpisode(t, store, "show", 2, "https://media.example/2")
	if ok, err := store.Claim(ctx, episode.ID, "pass-a", time.Minute); err != nil || !ok {
		t.Fatalf("claim: ok=%v err=%v", ok, err)
	}

	if err := store.MarkDownloadStarted(ctx, episode.ID, "pass-a"); err != nil {
		t.Fatalf("MarkDownloadStarted failed: %v", err)
	}
	if err := store.MarkProcessed(ctx, episode.ID, "pass-a", ""); err == nil {
		t.Fatal("expected empty reference to be rejected")
	}
	if err := store.MarkProcessed(ctx, episode.ID, "pass-b", "https://t.me/c/1/2"); !errors.Is(err, queue.ErrClaimLost) {
		t.Fatalf("expected ErrClaimLost for wrong owner, got %v", err)
	}
	if err := store.MarkProcessed(ctx, episode.ID, "pass-a", "https://t.me/c/1/2"); err != nil {
		t.Fatalf("MarkProcessed failed: %v", err)
	}

	fetched, err := store.GetEpisode(ctx, episode.ID)
	if err != nil {
		t.Fatalf("GetEpisode failed: %v", err)
	}
	if !fetched.Processed || fetched.PublishedReference != "https://t.me/c/1/2" {
		t.Fatalf("unexpected processed state: %#v", fetched)
	}
	if fetched.ProcessedAt == nil || fetched.DownloadStartedAt == nil || fetched.ClaimOwner != "" {
		t.Fatalf("expected processed_at set and claim cleared: %#v", fetched)
	}

	pending, err := store.ListUnprocessed(ctx)
	if err != nil {
		t.Fatalf("ListUnprocessed failed: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected processed episode excluded, got %d", len(pending))
	}
	if ok, err := store.Claim(ctx, episode.ID, "pass-c", time.Minute); err != nil || ok {
		t.Fatalf("expected processed episode to be unclaimable: ok=%v err=%v", ok, err)
	}
}

func TestRecordFailureReleasesClaim(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	episode := testsupport.NewEpisode(t, store, "show", 4, "https://media.example/4")
	if ok, err := store.Claim(ctx, episode.ID, "pass-a", time.Minute); err != nil || !ok {
		t.Fatalf("claim: ok=%v err=%v", ok, err)
	}
	if err := store.RecordFailure(ctx, episode.ID, "pass-a", "transcode failed"); err != nil {
		t.Fatalf("RecordFailure failed: %v", err)
	}

	fetched, err := store.GetEpisode(ctx, episode.ID)
	if err != nil {
		t.Fatalf("GetEpisode failed: %v", err)
	}
	if fetched.Attempts != 1 || fetched.LastError != "transcode failed" || fetched.ClaimOwner != "" {
		t.Fatalf("unexpected failure state: %#v", fetched)
	}
	if fetched.Processed {
		t.Fatal("failed episode must stay unprocessed")
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.Total != 1 || stats.Pending != 1 || stats.Failing != 1 || stats.Claimed != 0 {
		t.Fatalf("unexpected stats: %#v", stats)
	}

	if ok, err := store.Claim(ctx, episode.ID, "pass-b", time.Minute); err != nil || !ok {
		t.Fatalf("expected retry claim after failure: ok=%v err=%v", ok, err)
	}
	if err := store.ReleaseClaim(ctx, episode.ID, "pass-b"); err != nil {
		t.Fatalf("ReleaseClaim failed: %v", err)
	}
}

func TestListEpisodesFilters(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	first := testsupport.NewEpisode(t, store, "alpha", 1, "https://media.example/a1")
	testsupport.NewEpisode(t, store, "alpha", 2, "https://media.example/a2")
	testsupport.NewEpisode(t, store, "beta", 1, "https://media.example/b1")

	if ok, err := store.Claim(ctx, first.ID, "pass", time.Minute); err != nil || !ok {
		t.Fatalf("claim: ok=%v err=%v", ok, err)
	}
	if err := store.MarkProcessed(ctx, first.ID, "pass", "ref"); err != nil {
		t.Fatalf("MarkProcessed failed: %v", err)
	}

	alpha, err := store.ListEpisodes(ctx, queue.ListFilter{SeriesKey: "alpha"})
	if err != nil {
		t.Fatalf("ListEpisodes failed: %v", err)
	}
	if len(alpha) != 2 || alpha[0].SequenceNumber != 2 {
		t.Fatalf("expected two alpha episodes newest first, got %#v", alpha)
	}

	processed := true
	done, err := store.ListEpisodes(ctx, queue.ListFilter{Processed: &processed})
	if err != nil {
		t.Fatalf("ListEpisodes failed: %v", err)
	}
	if len(done) != 1 || done[0].ID != first.ID {
		t.Fatalf("expected only processed episode, got %#v", done)
	}

	limited, err := store.ListEpisodes(ctx, queue.ListFilter{Limit: 1})
	if err != nil {
		t.Fatalf("ListEpisodes failed: %v", err)
	}
	if len(limited) != 1 {
		t.Fatalf("expected limit to apply, got %d", len(limited))
	}
}

func TestSiteCredentialUpsert(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	if err := store.PutSiteCredential(ctx, "media.example", "alice", []byte("v1")); err != nil {
		t.Fatalf("PutSiteCredential failed: %v", err)
	}
	if err := store.PutSiteCredential(ctx, "media.example", "alice", []byte("v2")); err != nil {
		t.Fatalf("PutSiteCredential upsert failed: %v", err)
	}

	all, err := store.ListSiteCredentials(ctx)
	if err != nil {
		t.Fatalf("ListSiteCredentials failed: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected upsert to keep one row, got %d", len(all))
	}

	cred, err := store.SiteCredential(ctx, "media.example")
	if err != nil {
		t.Fatalf("SiteCredential failed: %v", err)
	}
	if cred == nil || string(cred.SecretEnc) != "v2" || cred.AccountID != "alice" {
		t.Fatalf("unexpected credential: %#v", cred)
	}

	none, err := store.SiteCredential(ctx, "other.example")
	if err != nil || none != nil {
		t.Fatalf("expected nil credential for unknown domain: %#v %v", none, err)
	}

	if err := store.DeleteSiteCredential(ctx, "media.example", "alice"); err != nil {
		t.Fatalf("DeleteSiteCredential failed: %v", err)
	}
	if err := store.DeleteSiteCredential(ctx, "media.example", "alice"); !errors.Is(err, queue.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAllowListIsCaseInsensitive(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	if err := store.AllowDomain(ctx, "  Video.Example "); err != nil {
		t.Fatalf("AllowDomain failed: %v", err)
	}
	if err := store.AllowDomain(ctx, "video.example"); err != nil {
		t.Fatalf("AllowDomain repeat failed: %v", err)
	}
	allowed, err := store.IsDomainAllowed(ctx, "VIDEO.example")
	if err != nil || !allowed {
		t.Fatalf("expected domain allowed: %v %v", allowed, err)
	}

	domains, err := store.ListAllowedDomains(ctx)
	if err != nil {
		t.Fatalf("ListAllowedDomains failed: %v", err)
	}
	if len(domains) != 1 || domains[0].Domain != "video.example" {
		t.Fatalf("unexpected allow-list: %#v", domains)
	}

	if err := store.DisallowDomain(ctx, "video.example"); err != nil {
		t.Fatalf("DisallowDomain failed: %v", err)
	}
	if allowed, _ := store.IsDomainAllowed(ctx, "video.example"); allowed {
		t.Fatal("expected domain removed")
	}
}

func TestOpenRejectsSchemaMismatch(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	if store.Path() != cfg.DatabasePath() {
		t.Fatalf("unexpected path %q", store.Path())
	}
	if err := store.Ping(context.Background()); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}
	store.Close()

	db, err := sql.Open("sqlite", cfg.DatabasePath())
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	if _, err := db.Exec("PRAGMA user_version = 99"); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	db.Close()

	if _, err := queue.Open(cfg); !errors.Is(err, queue.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}
