/*
Package types defines the data structures shared by every postcli package.

# Overview

The types package provides shared type definitions for:
  - Session state (token + username, persisted together)
  - Backend payloads (credentials, auth responses, proxy envelopes)
  - Relayed responses (RequestOutcome) and history entries
  - Per-operation UI status (Status)

# Wire Format

Field tags follow the backend's JSON names. HistoryEntry uses "_id" for its
identifier and camelCase for the stored response fields:

	{
	  "_id": "6650c1...",
	  "url": "https://jsonplaceholder.typicode.com/todos/1",
	  "method": "GET",
	  "headers": {"Accept": "application/json"},
	  "body": {},
	  "responseStatus": 200,
	  "responseHeaders": {"content-type": "application/json"},
	  "responseData": {"id": 1},
	  "timestamp": "2025-05-24T10:00:00.000Z"
	}

# Methods

Method is restricted to GET, POST, PUT, DELETE and PATCH. Only POST, PUT and
PATCH carry a body; see Method.HasBody.
*/
package types
