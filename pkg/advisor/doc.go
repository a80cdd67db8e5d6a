// Package advisor is the service layer around the policy engine.
//
// The engine itself is pure. Service performs the I/O around an
// evaluation in a fixed order: normalize and hash, look up the decision
// cache by engine version and hash (re-stamping evaluatedAt on a hit), run
// the engine on a miss and store the result, hand an evidence record to the
// asynchronous recorder, publish an evaluation.completed event when any
// escalation flag is raised, then record metrics and the advisor.evaluate
// span. A failing cache, evidence store or broker never changes the
// response.
//
//	svc, err := advisor.New(advisor.Options{
//		Engine:    eng,
//		Cache:     decisionCache,
//		Recorder:  evidenceRecorder,
//		Publisher: publisher,
//		Records:   store,
//		Metrics:   collector,
//		Logger:    logger,
//	})
//	resp := svc.Evaluate(ctx, input, advisor.Meta{RequestID: id, Source: evidence.SourceHTTP})
package advisor
