// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package contract validates the structural invariants a freshly parsed
// index must satisfy before the resolver, topology, and summarizer
// stages run against it.
//
// # Quick Start
//
//	violations := contract.Validate(idx)
//	for _, v := range violations {
//	    logger.Warn("indexing.pipeline.contract.violation", "detail", v.String())
//	}
//
// Validate reports two invariants: every function's line_start must be
// less than or equal to its line_end (both positive), and every
// qualified name must be unique within the index. Violations are
// reported, not enforced — callers decide whether to log, drop the
// offending declaration, or fail the run.
package contract
