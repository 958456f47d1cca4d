/*
 *
 * Copyright 2023 CubeFS authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 *
 */

/*

# mdscore: the in-memory core of a metadata server cache

## What lives here

Everything a metadata server keeps about a cached inode, dirfrag or dentry
that is not specific to one of them:

* pins, the reference count keeping an object in cache, with per-reason
  tracking when ref debugging is on

* authority, replicas and their nonces

* client leases and the lock gathers they hold up

* waiters, continuations parked on an object until an event fires

* decaying popularity counters and the load vectors built from them

* recursive statistics and their propagation deltas

* addressing keys and their byte-exact wire encoding

## Packages

* decay - exponentially decaying counters

* load - inode, dirfrag and per-rank load vectors

* rstat - fragment and recursive stats, inodes, fnodes

* cache - the embedded Object base, lock ordering, the sharded registry

* proto - inode numbers, snapshots, frags, request ids, timestamps

* codec - little-endian encoder and decoder

* sampler - periodic load sampling across registry shards

* metrics - prometheus export of the sampled load

## Concurrency

An object belongs to one registry shard and is only touched by that
shard's scheduler. The sampler is the only thing that fans out across
shards, and it asks each shard for a snapshot instead of reading objects
itself.

## Building Blocks

* Prometheus
* cubefs blobstore log, trace, errors and config

*/

package mdscore
