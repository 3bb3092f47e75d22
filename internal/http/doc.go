// Package http exposes the campground services over a JSON API.
//
// Every route except GET /healthz requires a bearer token checked by
// RequireToken. The router exposes:
//   - GET /availability?arrival=&departure=[&type=][&serving=true]: free
//     campsites for a stay. start/end (RFC 3339) may replace arrival/departure.
//   - GET /campsites/{id}/availability: whether one campsite is free.
//   - GET, POST /campsites; GET, PUT, DELETE /campsites/{id};
//     GET /campsites/{id}/assignments.
//   - POST /assignments; GET, PUT, DELETE /assignments/{id};
//     PUT /assignments/{id}/check-in.
//   - GET, POST /reservations; GET, PUT, DELETE /reservations/{id};
//     PUT /reservations/{id}/stay reschedules and moves each binding;
//     GET /reservations/{id}/assignments; POST /reservations/{id}/reconcile;
//     GET /reservations/{id}/fees.
//   - GET, POST /waitlist (GET takes an optional ?customer_id=);
//     GET, PUT, DELETE /waitlist/{id};
//     POST /waitlist/{id}/promote; POST /waitlist/promote-next;
//     POST /waitlist/promote-all.
//   - GET /yearly-rates; GET, PUT, DELETE /yearly-rates/{year}.
//
// Request/response DTOs live alongside their respective handlers.
package http
