// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package listing calls the external image-analysis service and turns its
reply into displayable sections.

# Client

	client := listing.NewClient(cfg.APIURL, cfg.APITimeout)
	raw, err := client.Analyze(ctx, images)

Analyze posts every image as an "images" part of one multipart request to
{base}/analyze-product and returns the raw listing_section value. There is
exactly one attempt, bounded by the client timeout (30s by default).

# Errors

Failures are typed so callers can pick a message with errors.As:

  - *ValidationError: no images (no request is sent)
  - *NetworkError: connection failure or timeout, retryable by the caller
  - *ServiceError: non-2xx status, with status code and body
  - *DecodeError: body is not a JSON object
  - *SchemaError: listing_section missing or null

# Formatting

Format normalizes listing_section, which services send either as a JSON
object or as a string containing JSON:

	l := listing.Format(raw)

Strings lose their C0 control characters and DEL before decoding. If
decoding still fails, the listing has a single "Raw Listing" section holding
the original text, so the payload is never dropped; IsRaw reports that case.
Section order follows the service's output, and so does key order inside
nested objects, which decode into a *Listing of their own.

# Rendering

Render applies the display rules for templates:

  - empty sections are skipped
  - lists become bullets
  - objects become "Key: value" bullets with title-cased keys, in order
  - scalars become text

Section titles swap underscores for spaces and are title-cased.

# History Entries

NewEntry builds a models.ListingEntry with a fresh uuid chat_id from the
title, product_description and attributes sections.
*/
package listing
