// Package gfaview is an interactive viewer and analysis workstation for
// genome variation graphs.
//
// # Overview
//
// gfaview renders pre-laid-out variation graphs (2D coordinates per node
// produced offline) at interactive rates while the user pans, zooms,
// selects, and queries substructures. Nodes carry DNA sequences; paths
// through the graph represent genomes embedded in it.
//
// The heavy lifting happens on the GPU: a multi-target node renderer that
// also emits a per-pixel node-ID picking buffer, a selection-outline
// post-processing chain, and compute kernels that select, translate, and
// preprocess node geometry directly in the node vertex buffer.
//
// # Architecture
//
// The repository is organized into:
//   - Root package: 2D geometry (Point, Rect), colors, logging.
//   - view: camera state, easing, the animation worker.
//   - graph: the graph-source interface and path position queries.
//   - layout: layout TSV ingestion and the CPU position mirror.
//   - universe: node selection sets and bounding boxes.
//   - annot: GFF3/BED annotation ingestion and label sets.
//   - overlay: per-node color overlays and themes.
//   - app: shared interaction state, input bindings, async tasks.
//   - internal/gpu: all wgpu HAL wiring (buffers, pipelines, compute).
//
// By default gfaview produces no log output. Call [SetLogger] to enable
// logging across all sub-packages.
package gfaview
