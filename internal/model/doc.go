// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package model is the in-memory form of a content manifest. A manifest is
// an HCL file with three kinds of top-level blocks:
//
//   - properties: global key/value pairs visible to every target as
//     `prop.<name>`.
//
//   - compiler "<name>": settings for one registered compiler, namely
//     extension overrides and compiler-level parameters.
//
//   - target "<name>": one build step with its inputs, outputs, optional
//     explicit compiler and target-level parameters.
//
// The model keeps target paths and parameters as unevaluated hcl
// expressions together with their source ranges. Evaluation happens in the
// target resolver, once the global build context is known, so every later
// error can still point back at the manifest line that caused it.
package model
