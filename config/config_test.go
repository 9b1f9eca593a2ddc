package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(viper.New(), filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("a missing config file must not be fatal: %v", err)
	}

	if cfg.Debug {
		t.Fatalf("debug defaults on")
	}
	if cfg.Transfer.BlockSize != "4MiB" {
		t.Fatalf("block_size default = %q, want 4MiB", cfg.Transfer.BlockSize)
	}
	if cfg.Transfer.CompressionLevel != 6 {
		t.Fatalf("compression_level default = %d, want 6", cfg.Transfer.CompressionLevel)
	}
	if !cfg.Transfer.SyncEachWrite {
		t.Fatalf("sync_each_write defaults off")
	}
	if cfg.Progress.Interval != time.Second {
		t.Fatalf("progress interval default = %v, want 1s", cfg.Progress.Interval)
	}
	if len(cfg.Safety.AllowedDevices) != 0 {
		t.Fatalf("allowed_devices defaults non-empty: %v", cfg.Safety.AllowedDevices)
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "diskdump.toml")
	toml := `
debug = true

[transfer]
block_size = "1MiB"
compression_level = 9
sync_each_write = false

[progress]
interval = "250ms"

[safety]
allowed_devices = ["/dev/loop*", "/dev/vdb"]
`
	if err := os.WriteFile(path, []byte(toml), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfig(viper.New(), path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if !cfg.Debug {
		t.Fatalf("debug not read from file")
	}
	if cfg.Transfer.BlockSize != "1MiB" {
		t.Fatalf("block_size = %q, want 1MiB", cfg.Transfer.BlockSize)
	}
	if cfg.Transfer.CompressionLevel != 9 {
		t.Fatalf("compression_level = %d, want 9", cfg.Transfer.CompressionLevel)
	}
	if cfg.Transfer.SyncEachWrite {
		t.Fatalf("sync_each_write not read from file")
	}
	if cfg.Progress.Interval != 250*time.Millisecond {
		t.Fatalf("progress interval = %v, want 250ms", cfg.Progress.Interval)
	}
	if len(cfg.Safety.AllowedDevices) != 2 {
		t.Fatalf("allowed_devices = %v, want two patterns", cfg.Safety.AllowedDevices)
	}
}

func TestLoadConfigMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "diskdump.toml")
	if err := os.WriteFile(path, []byte("debug = [not toml"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := LoadConfig(viper.New(), path); err == nil {
		t.Fatalf("a present but malformed file must be fatal")
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("DISKDUMP_DEBUG", "true")
	t.Setenv("DISKDUMP_TRANSFER_BLOCK_SIZE", "8MiB")

	cfg, err := LoadConfig(viper.New(), filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if !cfg.Debug {
		t.Fatalf("DISKDUMP_DEBUG ignored")
	}
	if cfg.Transfer.BlockSize != "8MiB" {
		t.Fatalf("block_size = %q, want the env override 8MiB", cfg.Transfer.BlockSize)
	}
}

func TestBlockSizeBytes(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    int64
		wantErr bool
	}{
		{name: "binary mebibytes", in: "4MiB", want: 4 << 20},
		{name: "binary kibibytes", in: "512KiB", want: 512 << 10},
		{name: "plain bytes", in: "4096", want: 4096},
		{name: "si megabytes", in: "1MB", want: 1000 * 1000},
		{name: "single byte", in: "1", want: 1},
		{name: "zero", in: "0", wantErr: true},
		{name: "garbage", in: "lots", wantErr: true},
		{name: "empty", in: "", wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got, err := Transfer{BlockSize: tt.in}.BlockSizeBytes()
			if tt.wantErr {
				if err == nil {
					t.Fatalf("BlockSizeBytes(%q) = %d, want error", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("BlockSizeBytes(%q): %v", tt.in, err)
			}
			if got != tt.want {
				t.Fatalf("BlockSizeBytes(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestSafetyAllows(t *testing.T) {
	tests := []struct {
		name     string
		patterns []string
		device   string
		want     bool
	}{
		{name: "empty allowlist allows everything", patterns: nil, device: "/dev/sda", want: true},
		{name: "exact match", patterns: []string{"/dev/vdb"}, device: "/dev/vdb", want: true},
		{name: "glob match", patterns: []string{"/dev/loop*"}, device: "/dev/loop3", want: true},
		{name: "second pattern matches", patterns: []string{"/dev/vdb", "/dev/loop*"}, device: "/dev/loop0", want: true},
		{name: "no match", patterns: []string{"/dev/loop*"}, device: "/dev/sda", want: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got, err := Safety{AllowedDevices: tt.patterns}.Allows(tt.device)
			if err != nil {
				t.Fatalf("Allows: %v", err)
			}
			if got != tt.want {
				t.Fatalf("Allows(%q) with %v = %v, want %v", tt.device, tt.patterns, got, tt.want)
			}
		})
	}
}

func TestSafetyAllowsInvalidPattern(t *testing.T) {
	if _, err := (Safety{AllowedDevices: []string{"["}}).Allows("/dev/sda"); err == nil {
		t.Fatalf("an invalid pattern must surface as an error")
	}
}
