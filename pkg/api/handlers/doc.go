// Package handlers implements the stormwatch HTTP API.
//
// Routes:
//
//	POST   /v1/evaluate                               evaluate a scenario body (also /evaluate)
//	POST   /v1/scenarios                              create a scenario record
//	GET    /v1/scenarios                              list scenario records (?limit=&offset=)
//	GET    /v1/scenarios/{id}                         get a scenario record
//	PUT    /v1/scenarios/{id}                         replace a scenario record
//	DELETE /v1/scenarios/{id}                         delete a scenario and its assets
//	POST   /v1/scenarios/{id}/assets                  attach an asset record
//	GET    /v1/scenarios/{id}/assets                  list asset records
//	GET    /v1/scenarios/{id}/assets/{assetID}        get an asset record
//	PUT    /v1/scenarios/{id}/assets/{assetID}        replace an asset record
//	DELETE /v1/scenarios/{id}/assets/{assetID}        delete an asset record
//	POST   /v1/scenarios/{id}/evaluate                evaluate a stored scenario
//	GET    /v1/evidence                               query the audit trail
//	GET    /v1/evidence/export                        stream the audit trail (?format=json|csv)
//
// The evaluate endpoints only fail for transport reasons: a body that is
// not a JSON object (400) or is too large (413). Such failures carry the
// invalid_input escalation flag. Any well-formed object is evaluated, with
// problems reported as data quality warnings in the response.
package handlers
