package sqlinline

// Claim-and-fail for predictions stuck in processing. "skip locked" lets
// several sweeper instances run without stepping on each other.
// Args: staleness in seconds, batch limit.
const QSweepStalePredictions = `--sql 6b24f8d0-93c5-4e7a-b1f6-08a5d72c3e19
with stale as (
    select id
    from predictions
    where status = 'processing'
      and updated_at < now() - ($1::int * interval '1 second')
    order by updated_at asc
    for update skip locked
    limit $2::int
),
failed as (
    update predictions p
    set status = 'failed',
        error_message = 'timed out waiting for inference callback',
        updated_at = now()
    where p.id in (select id from stale)
    returning p.id, p.user_id, p.credit_cost
)
select id, user_id, credit_cost
from failed;
`
