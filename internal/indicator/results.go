package indicator

import "batch-indicators/internal/model"

// LatestResults turns the final column of every output into one result per
// symbol, stamped with batch.AsOf. Not-yet-available cells become results
// with a nil Value.
func LatestResults(batch *model.PriceBatch, outputs []Output) []model.IndicatorResult {
	results := make([]model.IndicatorResult, 0, len(outputs)*len(batch.Symbols))
	for _, o := range outputs {
		for i, sym := range batch.Symbols {
			results = append(results, model.NewIndicatorResult(o.Name, sym, o.Values.Last(i), batch.AsOf))
		}
	}
	return results
}
