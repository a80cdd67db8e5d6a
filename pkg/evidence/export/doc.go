// Package export writes evidence records as JSON or CSV.
//
// Both exporters have a slice form (Export) and a channel form
// (ExportStream) that pairs with evidence.Storage.QueryStream:
//
//	records, errs, err := store.QueryStream(ctx, q)
//	if err != nil {
//	    return err
//	}
//	if err := export.NewCSVExporter(true).ExportStream(ctx, records, os.Stdout); err != nil {
//	    return err
//	}
//	return <-errs
package export
