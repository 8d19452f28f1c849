// Copyright 2022 Stock Parfait

// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at

//     http://www.apache.org/licenses/LICENSE-2.0

// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package knack implements the transport layer of the Knack REST API.
//
// Official documentation is at https://docs.knack.com/docs/introduction-to-the-api .
//
// Records are fetched from a "container": either an object (a database table)
// or a view (a query defined on a page, or "scene", of the application). The
// API returns at most 1000 records per page; Client.Fetch pages transparently,
// re-requesting a page when it times out.
//
// Application metadata (objects, their fields, scenes and views) is fetched
// with Client.FetchMetadata. Record values are returned as decoded JSON and
// are normalized by the records package.
package knack
