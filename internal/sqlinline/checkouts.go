package sqlinline

const QInsertCheckoutSession = `--sql f19c4a82-7d05-4b3e-a6c9-0e852d1b74f3
insert into checkout_sessions (id, checkout_id, user_id, session_type, product_id, amount_cents, credits, status, country, success_url, created_at, updated_at)
values (gen_random_uuid(), $1::text, $2::uuid, $3::text, $4::text, $5::bigint, $6::int, 'PENDING', $7::text, $8::text, now(), now())
returning id;
`

const QSelectCheckoutSession = `--sql 84d05e7b-3fa2-4c91-b6e0-19c7d3a8f254
select checkout_id, user_id, session_type, product_id, amount_cents, credits, status, paid_at
from checkout_sessions
where checkout_id = $1::text;
`

// Guarded transition: PENDING -> PAID happens exactly once. Duplicate webhook
// deliveries match no row and the caller treats that as already processed.
const QMarkCheckoutPaid = `--sql d2b78c09-56e4-4a1f-8d37-c40f9e2a51b6
update checkout_sessions
set status = 'PAID',
    paid_at = now(),
    updated_at = now()
where checkout_id = $1::text
  and status = 'PENDING'
returning user_id, credits;
`

const QUpdateCheckoutStatus = `--sql 09e6f3d1-8b20-47c5-9a84-5d1c36e7b092
update checkout_sessions
set status = $2::text,
    updated_at = now()
where checkout_id = $1::text
returning user_id;
`
