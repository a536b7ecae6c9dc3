// Package opensearch creates the OpenSearch client used as the audit sink
// (audit.OpenSearchStorage) and exposes a health check for it.
//
//	cfg, err := config.Load[opensearch.Config]()
//	if err != nil {
//		return err
//	}
//	client, err := opensearch.New(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	sink := audit.NewOpenSearchStorage(client, cfg.Index)
package opensearch
