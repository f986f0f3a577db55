package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.Type == "" {
		cfg.Storage.Type = "sqlite"
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/semmap/data/embeddings.db"
	}
	if cfg.Storage.BoltPath == "" {
		cfg.Storage.BoltPath = "/usr/local/var/semmap/data/embeddings.bolt"
	}
	if cfg.Storage.SnapshotPath == "" {
		cfg.Storage.SnapshotPath = "/usr/local/var/semmap/site/assets/document_embeddings.json"
	}
	if cfg.Storage.LayoutPath == "" {
		cfg.Storage.LayoutPath = "/usr/local/var/semmap/site/assets/umap.json"
	}
	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = "onnx"
	}
	if cfg.Embedding.ModelPath == "" {
		cfg.Embedding.ModelPath = "/usr/local/var/semmap/data/models/paraphrase-multilingual-MiniLM-L12-v2.onnx"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 384
	}
	if cfg.Embedding.MaxTokens == 0 {
		cfg.Embedding.MaxTokens = 128
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 1000
	}
	if cfg.Embedding.TimeoutSeconds == 0 {
		cfg.Embedding.TimeoutSeconds = 30
	}
	if cfg.Search.Strategy == "" {
		cfg.Search.Strategy = "buffer"
	}
	if cfg.Search.DebounceMs == 0 {
		cfg.Search.DebounceMs = 300
	}
	if cfg.Search.MinIntensity == 0 {
		cfg.Search.MinIntensity = 0.1
	}
	if cfg.Search.MaxIntensity == 0 {
		cfg.Search.MaxIntensity = 1.0
	}
	if cfg.Search.LoadRetries == 0 {
		cfg.Search.LoadRetries = 3
	}
	if cfg.Render.Width == 0 {
		cfg.Render.Width = 960
	}
	if cfg.Render.Height == 0 {
		cfg.Render.Height = 600
	}
	if cfg.Render.MarginX == 0 {
		cfg.Render.MarginX = 50
	}
	if cfg.Render.MarginY == 0 {
		cfg.Render.MarginY = 25
	}
	if cfg.Render.Radius == 0 {
		cfg.Render.Radius = 5
	}
	if cfg.Render.Ticks == 0 {
		cfg.Render.Ticks = 10
	}
}
